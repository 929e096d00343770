package reader

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/achilleasa/bindless/asset"
	"github.com/achilleasa/bindless/asset/mesh"
	"github.com/achilleasa/bindless/types"
)

func readPayload(t *testing.T, payload string) ([]*mesh.Mesh, error) {
	t.Helper()
	res := asset.NewResourceFromStream("test.obj", strings.NewReader(payload))
	defer res.Close()
	return newWavefrontReader().Read(res)
}

func TestVec2Parser(t *testing.T) {
	expError := `unsupported syntax for "vt"; expected 2 arguments; got 0`
	_, err := parseVec2([]string{"vt"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec2([]string{"vt", "not-a-float", "2"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec2([]string{"vt", "3.14", "0"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec2{3.14, 0}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestVec3Parser(t *testing.T) {
	expError := `unsupported syntax for "v"; expected 3 arguments; got 0`
	_, err := parseVec3([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec3([]string{"v", "not-a-float", "2", "3"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec3([]string{"v", "3.14", "0", "0.4"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec3{3.14, 0, 0.4}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestSelectFaceCoordinate(t *testing.T) {
	expError := "index out of bounds"
	type spec struct {
		in        string
		listLen   int
		relOffset int
		out       int
		expError  string
	}
	specs := []spec{
		{"2", 1, 0, -1, expError},
		{"-2", 1, 0, -1, expError},
		{"1", 10, 0, 0, ""}, // indices are 1-based
		{"-1", 10, 0, 9, ""},
		{"1", 10, 4, 4, ""},
	}

	for idx, s := range specs {
		v, err := selectFaceCoordIndex(s.in, s.listLen, s.relOffset)
		if s.expError != "" && (err == nil || err.Error() != s.expError) {
			t.Fatalf("[spec %d] expected error %s; got %v", idx, s.expError, err)
		} else if v != s.out {
			t.Fatalf("[spec %d] expected index to be %d; got %d", idx, s.out, v)
		}
	}
}

func TestReadQuad(t *testing.T) {
	payload := `
# unit quad
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`
	meshes, err := readPayload(t, payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh; got %d", len(meshes))
	}

	m := meshes[0]
	if m.Name != "quad" || m.Topology != mesh.TriangleList {
		t.Fatalf("expected a triangle list named quad; got %q (%s)", m.Name, m.Topology)
	}

	// Shared quad corners must be emitted once.
	positions, _ := m.Attribute(mesh.AttributePosition)
	if positions.Len() != 4 {
		t.Fatalf("expected 4 vertices; got %d", positions.Len())
	}

	indices, _ := m.Indices()
	expIndices := []uint32{0, 1, 2, 0, 2, 3}
	if !reflect.DeepEqual(indices, expIndices) {
		t.Fatalf("expected indices %v; got %v", expIndices, indices)
	}

	uvs, _ := m.Attribute(mesh.AttributeUV0)
	if got := uvs.(mesh.Float32x2)[2]; got != types.XY(1, 1) {
		t.Fatalf("expected uv of vertex 2 to be (1, 1); got %v", got)
	}
}

func TestGeneratedNormals(t *testing.T) {
	payload := `
v 0 0 0
v 1 0 0
v 0 1 0
v 0 0 1
f 1 2 3
f 1 4 2
`
	meshes, err := readPayload(t, payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 1 || meshes[0].Name != "test" {
		t.Fatalf("expected a single mesh named after the resource; got %d", len(meshes))
	}

	normals, _ := meshes[0].Attribute(mesh.AttributeNormal)
	normalList := normals.(mesh.Float32x3)

	// Vertices with generated normals are not shared between faces.
	if len(normalList) != 6 {
		t.Fatalf("expected 6 vertices; got %d", len(normalList))
	}
	if exp := types.XYZ(0, 0, 1); normalList[0] != exp {
		t.Fatalf("expected first face normal %v; got %v", exp, normalList[0])
	}
	if exp := types.XYZ(0, 1, 0); normalList[3] != exp {
		t.Fatalf("expected second face normal %v; got %v", exp, normalList[3])
	}
}

func TestGroupsAndEmptyMeshes(t *testing.T) {
	payload := `
v 0 0 0
v 1 0 0
v 0 1 0
g empty
g first
f 1 2 3
o second
f -3 -2 -1
`
	meshes, err := readPayload(t, payload)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, m := range meshes {
		names = append(names, m.Name)
	}
	expNames := []string{"first", "second"}
	if !reflect.DeepEqual(names, expNames) {
		t.Fatalf("expected meshes %v; got %v", expNames, names)
	}
}

func TestFaceErrors(t *testing.T) {
	specs := []struct {
		payload  string
		expError string
	}{
		{"v 0 0 0\nf 1 1", `unsupported syntax for "f"`},
		{"v 0 0 0\nf 1 1 1 1 1", `unsupported syntax for "f"`},
		{"v 0 0 0\nf 1 2 1", "index out of bounds"},
		{"v 0 0 0\nf 1 1/1 1", "expected each face argument to contain 1 indices"},
		{"v 0 0\n", `unsupported syntax for "v"`},
	}

	for index, spec := range specs {
		_, err := readPayload(t, spec.payload)
		if err == nil || !strings.Contains(err.Error(), spec.expError) {
			t.Fatalf("[spec %d] expected error containing %q; got %v", index, spec.expError, err)
		}
	}
}

func TestCallIncludesFile(t *testing.T) {
	dir := t.TempDir()
	part := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	main := "v 5 5 5\ng main\nf 1 1 1\ncall part.obj\n"
	if err := os.WriteFile(filepath.Join(dir, "part.obj"), []byte(part), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.obj"), []byte(main), 0644); err != nil {
		t.Fatal(err)
	}

	meshes, err := ReadMeshes(filepath.Join(dir, "main.obj"))
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected faces from the included file to extend the current mesh; got %d meshes", len(meshes))
	}

	// Included files use indices relative to their own vertex definitions.
	positions, _ := meshes[0].Attribute(mesh.AttributePosition)
	posList := positions.(mesh.Float32x3)
	if got := posList[len(posList)-1]; got != types.XYZ(0, 1, 0) {
		t.Fatalf("expected last vertex to come from the included file; got %v", got)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.fbx")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadMeshes(path); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}
