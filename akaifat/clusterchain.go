package akaifat

import (
	"github.com/samplerfs/akaifat/akaierr"
	"github.com/samplerfs/akaifat/blockdev"
)

// ClusterChain is a logical byte stream layered over a FAT chain. A start
// cluster of 0 represents an empty (zero-length) chain, a sentinel rather
// than a real cluster (spec §3, §4.5).
type ClusterChain struct {
	fat          *Fat
	dev          blockdev.Device
	dataOffset   int64
	clusterSize  uint32
	startCluster ClusterID
	readOnly     bool
}

// NewClusterChain wraps the chain beginning at startCluster (0 for an empty
// chain) for I/O against dev.
func NewClusterChain(fat *Fat, dev blockdev.Device, dataOffset int64, clusterSize uint32, startCluster ClusterID, readOnly bool) (*ClusterChain, error) {
	if startCluster != 0 {
		if err := fat.testCluster(startCluster); err != nil {
			return nil, err
		}
		entry, err := fat.Get(startCluster)
		if err != nil {
			return nil, err
		}
		if fat.isFree(entry) {
			return nil, akaierr.InvalidName.WithMessage("start cluster is free")
		}
	}

	return &ClusterChain{
		fat:          fat,
		dev:          dev,
		dataOffset:   dataOffset,
		clusterSize:  clusterSize,
		startCluster: startCluster,
		readOnly:     readOnly,
	}, nil
}

// StartCluster returns the chain's first cluster, or 0 if it's empty.
func (c *ClusterChain) StartCluster() ClusterID { return c.startCluster }

// ClusterSize is the number of bytes in one cluster.
func (c *ClusterChain) ClusterSize() uint32 { return c.clusterSize }

func (c *ClusterChain) devOffset(cluster ClusterID, intraOffset uint32) int64 {
	return c.dataOffset + int64(intraOffset) + int64(cluster-FirstCluster)*int64(c.clusterSize)
}

// ChainLength returns the number of clusters in the chain (0 if empty).
func (c *ClusterChain) ChainLength() (int, error) {
	if c.startCluster == 0 {
		return 0, nil
	}
	chain, err := c.fat.Chain(c.startCluster)
	if err != nil {
		return 0, err
	}
	return len(chain), nil
}

// LengthOnDisk is ChainLength() * ClusterSize().
func (c *ClusterChain) LengthOnDisk() (int64, error) {
	n, err := c.ChainLength()
	if err != nil {
		return 0, err
	}
	return int64(n) * int64(c.clusterSize), nil
}

// SetSize rounds size up to a whole number of clusters and resizes the
// chain to match.
func (c *ClusterChain) SetSize(size int64) (int64, error) {
	clusters := (size + int64(c.clusterSize) - 1) / int64(c.clusterSize)
	if err := c.SetChainLength(int(clusters)); err != nil {
		return 0, err
	}
	return clusters * int64(c.clusterSize), nil
}

// SetChainLength grows or shrinks the chain to exactly n clusters. Growing
// allocates and links new clusters; shrinking to n>0 marks the new tail EOF
// and frees everything past it; shrinking to 0 frees the whole chain and
// resets the start cluster to the empty sentinel (spec §4.5).
func (c *ClusterChain) SetChainLength(n int) error {
	if n < 0 {
		return akaierr.InvalidName.WithMessage("negative cluster count")
	}

	if c.startCluster == 0 {
		if n == 0 {
			return nil
		}
		chain, err := c.fat.AllocNewChain(n)
		if err != nil {
			return err
		}
		c.startCluster = chain[0]
		return nil
	}

	chain, err := c.fat.Chain(c.startCluster)
	if err != nil {
		return err
	}
	if n == len(chain) {
		return nil
	}

	if n > len(chain) {
		tail := chain[len(chain)-1]
		for i := len(chain); i < n; i++ {
			next, err := c.fat.AllocAppend(tail)
			if err != nil {
				return err
			}
			tail = next
		}
		return nil
	}

	if n > 0 {
		if err := c.fat.SetEof(chain[n-1]); err != nil {
			return err
		}
		for i := n; i < len(chain); i++ {
			if err := c.fat.SetFree(chain[i]); err != nil {
				return err
			}
		}
		return nil
	}

	for _, cl := range chain {
		if err := c.fat.SetFree(cl); err != nil {
			return err
		}
	}
	c.startCluster = 0
	return nil
}

// forEachSpan walks [offset, offset+len) and invokes fn once per contiguous
// run within a single cluster, mirroring the chain-walking loop shared by
// ClusterChain.readData/writeData in the original implementation.
func (c *ClusterChain) forEachSpan(chain []ClusterID, offset int64, length int, fn func(devOffset int64, spanStart, spanLen int) error) error {
	remaining := length
	pos := 0
	chainIdx := int(offset / int64(c.clusterSize))
	intraOffset := uint32(offset % int64(c.clusterSize))

	for remaining > 0 {
		spanLen := int(c.clusterSize) - int(intraOffset)
		if spanLen > remaining {
			spanLen = remaining
		}

		devOff := c.devOffset(chain[chainIdx], intraOffset)
		if err := fn(devOff, pos, spanLen); err != nil {
			return err
		}

		pos += spanLen
		remaining -= spanLen
		chainIdx++
		intraOffset = 0
	}
	return nil
}

// ReadData fills dst with bytes starting at offset within the chain's
// logical byte stream.
func (c *ClusterChain) ReadData(offset int64, dst []byte) error {
	if c.startCluster == 0 {
		if len(dst) > 0 {
			return akaierr.ReadPastEnd
		}
		return nil
	}

	chain, err := c.fat.Chain(c.startCluster)
	if err != nil {
		return err
	}

	return c.forEachSpan(chain, offset, len(dst), func(devOffset int64, spanStart, spanLen int) error {
		if err := c.dev.Read(devOffset, dst[spanStart:spanStart+spanLen]); err != nil {
			return akaierr.Io.WrapError(err)
		}
		return nil
	})
}

// WriteData writes src starting at offset, growing the chain first if
// needed to cover offset+len(src).
func (c *ClusterChain) WriteData(offset int64, src []byte) error {
	if c.readOnly {
		return akaierr.ReadOnlyFilesystem
	}
	if len(src) == 0 {
		return nil
	}

	minSize := offset + int64(len(src))
	lengthOnDisk, err := c.LengthOnDisk()
	if err != nil {
		return err
	}
	if lengthOnDisk < minSize {
		if _, err := c.SetSize(minSize); err != nil {
			return err
		}
	}

	chain, err := c.fat.Chain(c.startCluster)
	if err != nil {
		return err
	}

	return c.forEachSpan(chain, offset, len(src), func(devOffset int64, spanStart, spanLen int) error {
		if err := c.dev.Write(devOffset, src[spanStart:spanStart+spanLen]); err != nil {
			return akaierr.Io.WrapError(err)
		}
		return nil
	})
}
