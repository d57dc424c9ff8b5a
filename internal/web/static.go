package web

import (
	"embed"
)

// staticFiles holds the monitor page served at /.
//
//go:embed static/*
var staticFiles embed.FS
