// Package formats decodes 3D GameStudio terrain heightmaps (HMP) and the
// MDL7 skin lumps embedded in them.
//
// Supported revisions are HMP5 and HMP7. HMP4 files are recognized and
// rejected with ErrUnsupportedVariant. All reads go through a bounds-checked
// Cursor, so malformed input fails with an error instead of panicking.
package formats
