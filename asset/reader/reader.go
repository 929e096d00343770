// Package reader loads mesh descriptions from model files. It serves the
// developer tooling; the pipeline itself receives meshes from its asset
// source.
package reader

import (
	"fmt"
	"strings"

	"github.com/achilleasa/bindless/asset"
	"github.com/achilleasa/bindless/asset/mesh"
)

// The Reader interface is implemented by all mesh readers.
type Reader interface {
	// Read mesh definitions from a resource.
	Read(*asset.Resource) ([]*mesh.Mesh, error)
}

// Read meshes from a file or URL.
func ReadMeshes(filename string) ([]*mesh.Mesh, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	// Select reader based on file extension
	var reader Reader
	if strings.HasSuffix(filename, ".obj") {
		reader = newWavefrontReader()
	} else {
		return nil, fmt.Errorf("readMeshes: unsupported file format")
	}
	return reader.Read(res)
}
