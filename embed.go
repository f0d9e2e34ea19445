package pubgallery

import "embed"

// EmbeddedAssets contains the browser side of the engine shipped with the
// module: live.js (websocket client), admin.js and gallery.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
