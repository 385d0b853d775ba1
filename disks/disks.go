// Package disks is a small registry of the floppy geometries Akai samplers
// actually shipped with, so a caller formatting a fresh image doesn't have
// to hand-compute boot sector fields (spec §2 "format").
package disks

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/samplerfs/akaifat/akaifat"
)

// Geometry names one predefined disk format by slug and carries the boot
// sector parameters needed to format it.
type Geometry struct {
	Slug        string `csv:"slug"`
	Name        string `csv:"name"`
	Description string `csv:"description"`

	BytesPerSector    uint16 `csv:"bytes_per_sector"`
	SectorsPerCluster uint8  `csv:"sectors_per_cluster"`
	ReservedSectors   uint16 `csv:"reserved_sectors"`
	FatCount          uint8  `csv:"fat_count"`
	RootEntryCount    uint16 `csv:"root_entry_count"`
	TotalSectors      uint32 `csv:"total_sectors"`
	SectorsPerFat     uint16 `csv:"sectors_per_fat"`
	MediaByte         uint8  `csv:"media_byte"`
}

// ToAkaiGeometry converts g into the Geometry akaifat.Format accepts.
func (g Geometry) ToAkaiGeometry(volumeLabel string) akaifat.Geometry {
	return akaifat.Geometry{
		BytesPerSector:    g.BytesPerSector,
		SectorsPerCluster: g.SectorsPerCluster,
		ReservedSectors:   g.ReservedSectors,
		FatCount:          g.FatCount,
		RootEntryCount:    g.RootEntryCount,
		TotalSectors:      g.TotalSectors,
		SectorsPerFat:     g.SectorsPerFat,
		MediaByte:         g.MediaByte,
		VolumeLabel:       volumeLabel,
	}
}

// TotalSizeBytes is the minimum size, in bytes, an image file holding this
// geometry must be.
func (g Geometry) TotalSizeBytes() int64 {
	return int64(g.TotalSectors) * int64(g.BytesPerSector)
}

//go:embed disk-geometries.csv
var diskGeometriesRawCSV string

var diskGeometries = make(map[string]Geometry)

func init() {
	reader := strings.NewReader(diskGeometriesRawCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row Geometry) error {
		if _, exists := diskGeometries[row.Slug]; exists {
			return fmt.Errorf("duplicate definition for disk geometry %q", row.Slug)
		}
		diskGeometries[row.Slug] = row
		return nil
	})
	if err != nil {
		panic(err)
	}
}

// Get looks up a predefined geometry by slug.
func Get(slug string) (Geometry, error) {
	geometry, ok := diskGeometries[slug]
	if !ok {
		return Geometry{}, fmt.Errorf("no predefined disk geometry exists with slug %q", slug)
	}
	return geometry, nil
}

// List returns every predefined geometry's slug, in no particular order.
func List() []string {
	slugs := make([]string, 0, len(diskGeometries))
	for slug := range diskGeometries {
		slugs = append(slugs, slug)
	}
	return slugs
}
