package reader

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/bindless/asset"
	"github.com/achilleasa/bindless/asset/mesh"
	"github.com/achilleasa/bindless/log"
	"github.com/achilleasa/bindless/types"
)

// A vertex reference inside a face definition. Missing uv or normal
// references are set to -1. Vertices that use a generated face normal are
// never shared so genFace holds the face they belong to.
type faceVertex struct {
	v, vt, vn int
	genFace   int
}

// A mesh under construction.
type meshBuilder struct {
	name string

	positions mesh.Float32x3
	normals   mesh.Float32x3
	uvs       mesh.Float32x2
	indices   []uint32

	// Maps face vertex references to emitted vertex indices.
	vertexMap map[faceVertex]uint32
}

func newMeshBuilder(name string) *meshBuilder {
	return &meshBuilder{
		name:      name,
		vertexMap: make(map[faceVertex]uint32),
	}
}

// Emit a vertex (or reuse a previously emitted one) and append its index.
func (b *meshBuilder) addVertex(key faceVertex, pos, normal types.Vec3, uv types.Vec2) {
	index, exists := b.vertexMap[key]
	if !exists {
		index = uint32(len(b.positions))
		b.positions = append(b.positions, pos)
		b.normals = append(b.normals, normal)
		b.uvs = append(b.uvs, uv)
		b.vertexMap[key] = index
	}
	b.indices = append(b.indices, index)
}

func (b *meshBuilder) build() *mesh.Mesh {
	m := mesh.New(b.name, mesh.TriangleList)
	m.SetAttribute(mesh.AttributePosition, b.positions)
	m.SetAttribute(mesh.AttributeNormal, b.normals)
	m.SetAttribute(mesh.AttributeUV0, b.uvs)
	m.SetIndices(b.indices)
	return m
}

type wavefrontReader struct {
	logger log.Logger

	// The parsed meshes.
	meshes []*meshBuilder

	// Counts parsed faces.
	faceCount int

	// List of vertices, normals and uv coords.
	vertexList []types.Vec3
	normalList []types.Vec3
	uvList     []types.Vec2

	// An error stack that provides additional error information when
	// model files include other files.
	errStack []string
}

// Create a new wavefront reader.
func newWavefrontReader() *wavefrontReader {
	return &wavefrontReader{
		logger: log.New("wavefront reader"),
	}
}

// Read mesh definitions. Each group or object becomes a separate mesh.
// Material and camera directives are ignored.
func (r *wavefrontReader) Read(res *asset.Resource) ([]*mesh.Mesh, error) {
	r.logger.Noticef(`parsing meshes from "%s"`, res.Path())
	start := time.Now()

	if err := r.parse(res, res.Name()); err != nil {
		return nil, err
	}

	meshes := make([]*mesh.Mesh, 0, len(r.meshes))
	for _, b := range r.meshes {
		meshes = append(meshes, b.build())
	}

	r.logger.Noticef("parsed %d meshes in %d ms", len(meshes), time.Since(start).Nanoseconds()/1e6)
	return meshes, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontReader) emitError(file string, line int, err error) error {
	if len(r.errStack) == 0 {
		return fmt.Errorf("[%s: %d] error: %w", file, line, err)
	}
	return fmt.Errorf("[%s: %d] error: %w\n%s", file, line, err, strings.Join(r.errStack, "\n"))
}

// Push a frame to the error stack.
func (r *wavefrontReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Parse wavefront object format.
func (r *wavefrontReader) parse(res *asset.Resource, defaultName string) error {
	var lineNum int

	// The main obj file may include (call) several other object files. Each
	// object file contains 1-based indices (when they are positive). By
	// tracking the current vertex/uv/normal offsets we can apply them
	// while parsing faces to select the correct coordinates.
	relVertexOffset := len(r.vertexList)
	relUvOffset := len(r.uvList)
	relNormalOffset := len(r.normalList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, fmt.Errorf(`unsupported syntax for "call"; expected 1 argument; got %d`, len(lineTokens)-1))
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [call]", res.Path(), lineNum))
			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err)
			}
			err = r.parse(incRes, incRes.Name())
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err)
			}
			r.vertexList = append(r.vertexList, v)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err)
			}
			r.normalList = append(r.normalList, v)
		case "vt":
			v, err := parseVec2(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err)
			}
			r.uvList = append(r.uvList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1))
			}

			r.verifyLastParsedMesh()
			r.meshes = append(r.meshes, newMeshBuilder(lineTokens[1]))
		case "f":
			// If no object has been defined create a default one
			if len(r.meshes) == 0 {
				r.meshes = append(r.meshes, newMeshBuilder(defaultName))
			}

			err := r.parseFace(r.meshes[len(r.meshes)-1], lineTokens, relVertexOffset, relUvOffset, relNormalOffset)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, err)
	}

	r.verifyLastParsedMesh()
	return nil
}

// Drop the last parsed mesh if it contains no faces.
func (r *wavefrontReader) verifyLastParsedMesh() {
	lastMeshIndex := len(r.meshes) - 1
	if lastMeshIndex >= 0 && len(r.meshes[lastMeshIndex].indices) == 0 {
		r.logger.Warningf(`dropping mesh "%s" as it contains no faces`, r.meshes[lastMeshIndex].name)
		r.meshes = r.meshes[:lastMeshIndex]
	}
}

// Parse face definition. Each face definitions consists of 3 or 4 arguments,
// one for each vertex. Each one of the vertex arguments is comprised of
// 1, 2 or 3 args separated by a slash character. The following formats are
// supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate
// an offset off the end of the vertex/uv list.
//
// Quad faces are split into two triangles. Faces without normals get a
// flat normal computed from their first triangle.
func (r *wavefrontReader) parseFace(b *meshBuilder, lineTokens []string, relVertexOffset, relUvOffset, relNormalOffset int) error {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	faceIndex := r.faceCount
	r.faceCount++

	var keys [4]faceVertex
	var vertices [4]types.Vec3
	var normals [4]types.Vec3
	var uv [4]types.Vec2
	expIndices := 0
	hasNormals := false
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		key := faceVertex{v: -1, vt: -1, vn: -1, genFace: -1}
		var err error
		key.v, err = selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %w", arg, err)
		}
		vertices[arg] = r.vertexList[key.v]

		// Parse UV coords if specified
		if expIndices > 1 && vTokens[1] != "" {
			key.vt, err = selectFaceCoordIndex(vTokens[1], len(r.uvList), relUvOffset)
			if err != nil {
				return fmt.Errorf("could not parse tex coord for face argument %d: %w", arg, err)
			}
			uv[arg] = r.uvList[key.vt]
		}

		// Parse normal coords if specified
		if expIndices > 2 && vTokens[2] != "" {
			key.vn, err = selectFaceCoordIndex(vTokens[2], len(r.normalList), relNormalOffset)
			if err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %w", arg, err)
			}
			normals[arg] = r.normalList[key.vn]
			hasNormals = true
		}
		keys[arg] = key
	}

	// If no normals are available generate them from the vertices
	if !hasNormals {
		e01 := vertices[1].Sub(vertices[0])
		e02 := vertices[2].Sub(vertices[0])
		faceNormal := e01.Cross(e02).Normalize()
		for arg := range normals {
			normals[arg] = faceNormal
			keys[arg].genFace = faceIndex
		}
	}

	// Assemble vertices into one or two triangles depending on whether we
	// are parsing a triangular or a quad face
	indiceList := [][3]int{{0, 1, 2}}
	if len(lineTokens) == 5 {
		indiceList = append(indiceList, [3]int{0, 2, 3})
	}
	for _, tri := range indiceList {
		for _, arg := range tri {
			b.addVertex(keys[arg], vertices[arg], normals[arg], uv[arg])
		}
	}

	return nil
}

// Given a face coordinate index token, return the index into the coordinate
// list. Positive indices are relative to the file that defines the face.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a Vec3 from the arguments of a line.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

// Parse a Vec2 from the arguments of a line.
func parseVec2(lineTokens []string) (types.Vec2, error) {
	if len(lineTokens) < 3 {
		return types.Vec2{}, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec2{}
	for tokIdx := 1; tokIdx <= 2; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
