package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/samplerfs/akaifat/akaifat"
	"github.com/samplerfs/akaifat/blockdev"
	"github.com/samplerfs/akaifat/disks"
)

func main() {
	app := cli.App{
		Usage: "Inspect and manipulate Akai FAT12/FAT16 sampler disk images",
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Create (or wipe) an image using a predefined disk geometry",
				Action:    formatImage,
				ArgsUsage: "IMAGE_FILE GEOMETRY_SLUG",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "label", Usage: "volume label to write"},
				},
			},
			{
				Name:      "info",
				Usage:     "Print the volume label and free/used space of an image",
				Action:    infoImage,
				ArgsUsage: "IMAGE_FILE",
			},
			{
				Name:      "ls",
				Usage:     "List the root directory of an image",
				Action:    lsImage,
				ArgsUsage: "IMAGE_FILE",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func openDevice(path string, sectorSize uint32, readOnly bool) (*blockdev.FileDevice, error) {
	return blockdev.OpenFileDevice(path, sectorSize, readOnly)
}

func formatImage(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return fmt.Errorf("expected IMAGE_FILE and GEOMETRY_SLUG arguments")
	}
	path := ctx.Args().Get(0)
	slug := ctx.Args().Get(1)

	geometry, err := disks.Get(slug)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	size := geometry.TotalSizeBytes()
	if err := file.Truncate(size); err != nil {
		file.Close()
		return err
	}
	file.Close()

	dev, err := openDevice(path, uint32(geometry.BytesPerSector), false)
	if err != nil {
		return err
	}
	defer dev.Close()

	fs, err := akaifat.Format(dev, geometry.ToAkaiGeometry(ctx.String("label")))
	if err != nil {
		return err
	}
	return fs.Close()
}

func infoImage(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected IMAGE_FILE argument")
	}

	dev, err := openDevice(ctx.Args().Get(0), 512, true)
	if err != nil {
		return err
	}
	defer dev.Close()

	fs, err := akaifat.Open(dev)
	if err != nil {
		return err
	}
	defer fs.Close()

	label, err := fs.VolumeLabel()
	if err != nil {
		return err
	}
	free, err := fs.FreeSpace()
	if err != nil {
		return err
	}
	total, err := fs.UsableSpace()
	if err != nil {
		return err
	}

	fmt.Printf("Volume label: %s\n", label)
	fmt.Printf("Used:  %d bytes\n", total-free)
	fmt.Printf("Free:  %d bytes\n", free)
	fmt.Printf("Total: %d bytes\n", total)
	return nil
}

func lsImage(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected IMAGE_FILE argument")
	}

	dev, err := openDevice(ctx.Args().Get(0), 512, true)
	if err != nil {
		return err
	}
	defer dev.Close()

	fs, err := akaifat.Open(dev)
	if err != nil {
		return err
	}
	defer fs.Close()

	root, err := fs.Root()
	if err != nil {
		return err
	}

	for _, entry := range root.Iter() {
		kind := "F"
		if entry.IsDirectory() {
			kind = "D"
		}
		fmt.Printf("%s  %10d  %s\n", kind, entry.Length, entry.AkaiName())
	}
	return nil
}
