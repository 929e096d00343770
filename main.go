package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/bindless/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "bindless"
	app.Usage = "compile meshes into bindless BVH buffers"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load settings from a YAML file",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile meshes into packed vertex, primitive and BVH node buffers",
			Description: `
Parse meshes from wavefront obj files, build a BVH for each mesh and pack all
meshes into the global vertex, primitive and node buffers that are uploaded to
the selected device.

The command prints the offsets of each mesh into the global buffers together
with the buffer sizes.`,
			ArgsUsage: "model_file1.obj model_file2.obj ...",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "min-leaf-items",
					Value: 4,
					Usage: "max number of primitives per BVH leaf",
				},
				cli.StringFlag{
					Name:  "backend, b",
					Value: "host",
					Usage: "device backend (host or wgpu)",
				},
				cli.StringFlag{
					Name:  "dump, d",
					Usage: "write the packed buffers to this directory or .zip archive (host backend only)",
				},
			},
			Action: cmd.CompileMeshes,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
