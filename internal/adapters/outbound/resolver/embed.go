package resolver

import "embed"

// bundledFS holds the optional tools archive produced by release builds.
//
//go:embed bundled
var bundledFS embed.FS

const bundledArchive = "bundled/tools.tar.gz"
