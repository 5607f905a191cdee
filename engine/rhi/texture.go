package rhi

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/spaghettifunk/titan/engine/core"
	"github.com/spaghettifunk/titan/engine/math"
)

/** @brief What a texture is for, which drives the native allocation. */
type TextureUsage int

const (
	TextureUsageSampled      TextureUsage = 0x1
	TextureUsageRenderTarget TextureUsage = 0x2
	TextureUsageDepthStencil TextureUsage = 0x3
)

type TextureDescription struct {
	Width     uint32
	Height    uint32
	Format    Format
	MipLevels uint32
	Usage     TextureUsage
}

type Texture struct {
	resourceObject
	Description TextureDescription
}

// CreateTexture allocates a native texture. mips carries one pixel slice per
// mip level; it may be nil for render-target usage. Dimensions exceeding the
// adapter's maximum are clamped, not rejected.
func (d *Device) CreateTexture(desc TextureDescription, mips [][]byte) (*Texture, error) {
	if !d.initialized {
		return nil, core.ErrNotInitialized
	}
	if desc.Width == 0 || desc.Height == 0 || desc.Format == FormatUndefined {
		return nil, fmt.Errorf("CreateTexture: %w", core.ErrInvalidParameter)
	}
	if maxDim := d.caps.MaxTextureDimension2D; desc.Width > maxDim || desc.Height > maxDim {
		core.LogWarn("CreateTexture: %dx%d exceeds adapter maximum %d, clamping", desc.Width, desc.Height, maxDim)
		desc.Width = math.Clamp(desc.Width, 1, maxDim)
		desc.Height = math.Clamp(desc.Height, 1, maxDim)
	}
	if desc.MipLevels == 0 {
		desc.MipLevels = 1
	}
	native, err := d.backend.CreateTexture(&desc, mips)
	if err != nil {
		return nil, err
	}
	return &Texture{
		resourceObject: newResourceObject(d, native),
		Description:    desc,
	}, nil
}

// CreateTextureFromImage uploads an image as an RGBA texture with a full CPU
// generated mip chain.
func (d *Device) CreateTextureFromImage(img image.Image) (*Texture, error) {
	if img == nil {
		return nil, fmt.Errorf("CreateTextureFromImage: %w", core.ErrInvalidParameter)
	}
	bounds := img.Bounds()
	width, height := uint32(bounds.Dx()), uint32(bounds.Dy())

	desc := TextureDescription{
		Width:     width,
		Height:    height,
		Format:    FormatR8G8B8A8Unorm,
		MipLevels: mipLevelCount(width, height),
		Usage:     TextureUsageSampled,
	}
	return d.CreateTexture(desc, generateMipChain(img, desc.MipLevels))
}

func mipLevelCount(width, height uint32) uint32 {
	levels := uint32(1)
	for dim := math.Max(width, height); dim > 1; dim /= 2 {
		levels++
	}
	return levels
}

// generateMipChain downsamples level by level with Catmull-Rom filtering.
func generateMipChain(img image.Image, levels uint32) [][]byte {
	mips := make([][]byte, 0, levels)

	level := image.NewRGBA(img.Bounds().Sub(img.Bounds().Min))
	draw.Draw(level, level.Bounds(), img, img.Bounds().Min, draw.Src)
	mips = append(mips, level.Pix)

	for i := uint32(1); i < levels; i++ {
		w := math.Max(level.Bounds().Dx()/2, 1)
		h := math.Max(level.Bounds().Dy()/2, 1)
		next := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(next, next.Bounds(), level, level.Bounds(), draw.Src, nil)
		mips = append(mips, next.Pix)
		level = next
	}
	return mips
}
