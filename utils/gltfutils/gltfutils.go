package gltfutils

import (
	"io"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

const Generator = "model_viewer"

// NewDocument returns an empty document with one default scene.
func NewDocument() *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Generator = Generator
	return doc
}

// ExportBinary writes doc as a single GLB stream with embedded buffers.
func ExportBinary(w io.Writer, doc *gltf.Document) error {
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	if err := encoder.Encode(doc); err != nil {
		return errors.Wrapf(err, "Failed to encode glb")
	}
	return nil
}
