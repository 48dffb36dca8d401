// Package archive maps canonical URLs onto the on-disk archive tree and
// persists response bodies there.
//
// The output layout mirrors the site's URL hierarchy: host and path
// segments become directories, the final segment becomes the filename
// ("index" at directory boundaries). Writes are skipped when a file
// already exists and overwrite is disabled, making repeated runs
// idempotent.
package archive
