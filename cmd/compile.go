package cmd

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/achilleasa/bindless/asset/compiler"
	"github.com/achilleasa/bindless/asset/mesh"
	"github.com/achilleasa/bindless/asset/reader"
	"github.com/achilleasa/bindless/config"
	"github.com/achilleasa/bindless/device"
	"github.com/achilleasa/bindless/events"
	"github.com/achilleasa/bindless/pipeline"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// A mesh source backed by the meshes parsed from the command line files.
type fileSource struct {
	meshes map[mesh.ID]*mesh.Mesh
	names  map[mesh.ID]string
}

func (s *fileSource) Mesh(id mesh.ID) (*mesh.Mesh, bool) {
	m, ok := s.meshes[id]
	return m, ok
}

// Compile meshes from one or more model files into the bindless buffers
// and display the buffer layout.
func CompileMeshes(ctx *cli.Context) error {
	cfg, err := config.Load(ctx.GlobalString("config"))
	if err != nil {
		return err
	}
	if ctx.IsSet("min-leaf-items") {
		cfg.BVH.MinLeafItems = ctx.Int("min-leaf-items")
	}
	if ctx.IsSet("backend") {
		cfg.Device.Backend = ctx.String("backend")
	}
	if err = cfg.Validate(); err != nil {
		return err
	}

	logCloser, err := setupLogging(ctx, cfg)
	if logCloser != nil {
		defer logCloser.Close()
	}
	if err != nil {
		return err
	}

	if ctx.NArg() == 0 {
		return errors.New("missing model files")
	}

	source := &fileSource{
		meshes: make(map[mesh.ID]*mesh.Mesh),
		names:  make(map[mesh.ID]string),
	}
	var batch []events.Event
	for idx := 0; idx < ctx.NArg(); idx++ {
		modelFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(modelFile, ".obj") {
			logger.Warningf("skipping unsupported file %s", modelFile)
			continue
		}

		meshes, err := reader.ReadMeshes(modelFile)
		if err != nil {
			return err
		}
		for _, m := range meshes {
			id := mesh.ID(len(source.meshes) + 1)
			source.meshes[id] = m
			source.names[id] = m.Name
			batch = append(batch, events.Event{ID: id, Kind: events.Created})
		}
	}

	dev, err := newDevice(cfg)
	if err != nil {
		return err
	}
	defer dev.Close()
	logger.Noticef(`using device "%s"`, dev.Name())

	p := pipeline.New(compiler.New(cfg.BVH.MinLeafItems), dev)
	p.Queue().Push(batch...)
	report, err := p.Tick(source)
	if err != nil {
		return err
	}

	for _, failure := range report.Failures {
		logger.Warningf("mesh %q: %v", source.names[failure.ID], failure.Err)
	}

	logger.Noticef("mesh offsets:\n%s", offsetTable(p, source))
	logger.Noticef("buffer information:\n%s", p.Packer().Stats())

	if dumpDir := ctx.String("dump"); dumpDir != "" {
		hostDev, ok := dev.(*device.HostDevice)
		if !ok {
			return fmt.Errorf("buffer dumps require the %q backend", config.BackendHost)
		}
		return dumpBuffers(hostDev, dumpDir)
	}

	return nil
}

// Create the device selected by the configuration.
func newDevice(cfg *config.Config) (device.Device, error) {
	switch cfg.Device.Backend {
	case config.BackendWGPU:
		return device.NewWGPUDevice(cfg.Device.ForceFallback)
	default:
		return device.NewHostDevice(), nil
	}
}

// Render the per-mesh offsets as a table.
func offsetTable(p *pipeline.Pipeline, source *fileSource) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Mesh", "Name", "Vertex offset", "Primitive offset", "Node offset"})
	for _, id := range p.Registry().IDs() {
		rec, _ := p.Offset(id)
		table.Append([]string{
			fmt.Sprint(id),
			source.names[id],
			fmt.Sprint(rec.VertexOffset),
			fmt.Sprint(rec.PrimitiveOffset),
			fmt.Sprint(rec.NodeOffset),
		})
	}
	table.Render()
	return buf.String()
}

// The file names used for buffer dumps.
var dumpFiles = []struct {
	buffer string
	file   string
}{
	{device.VertexBuffer, "vertices.bin"},
	{device.PrimitiveBuffer, "primitives.bin"},
	{device.NodeBuffer, "nodes.bin"},
}

// Write the uploaded buffers as raw binary files. If target ends in .zip
// the files are stored in a zip archive; otherwise target is treated as a
// directory.
func dumpBuffers(dev *device.HostDevice, target string) error {
	if strings.HasSuffix(target, ".zip") {
		return dumpBuffersToZip(dev, target)
	}

	if err := os.MkdirAll(target, 0755); err != nil {
		return err
	}

	for _, df := range dumpFiles {
		data, _ := dev.Buffer(df.buffer)
		path := filepath.Join(target, df.file)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
		logger.Infof("wrote %d bytes to %s", len(data), path)
	}
	return nil
}

func dumpBuffersToZip(dev *device.HostDevice, target string) error {
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, df := range dumpFiles {
		data, _ := dev.Buffer(df.buffer)
		w, err := zw.Create(df.file)
		if err != nil {
			return err
		}
		if _, err = w.Write(data); err != nil {
			return fmt.Errorf("could not write %s to %s: %w", df.file, target, err)
		}
	}

	if err = zw.Close(); err != nil {
		return err
	}
	logger.Infof("wrote buffer archive %s", target)
	return nil
}
