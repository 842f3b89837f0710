package app

import (
	"log"
	"mime"
)

func init() {
	ensureMimeType(".gltf", "model/gltf+json")
	ensureMimeType(".glb", "model/gltf-binary")
	ensureMimeType(".bin", "application/octet-stream")
	ensureMimeType(".ktx2", "image/ktx2")
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("app: failed to register MIME type for %s: %v", ext, err)
	}
}
