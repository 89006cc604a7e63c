package blockpress

import "embed"

// StaticAssets holds the stylesheet and images served under /static/.
//
//go:embed static/*
var StaticAssets embed.FS
