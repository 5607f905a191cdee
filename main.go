/*
Small harness that brings a device up on the configured backend, drives a
triangle's worth of pipeline state through a bind and compiles the same
snapshot into a cached pipeline.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/titan/engine/config"
	"github.com/spaghettifunk/titan/engine/core"
	"github.com/spaghettifunk/titan/engine/platform"
	"github.com/spaghettifunk/titan/engine/rhi"
	"github.com/spaghettifunk/titan/engine/rhi/headless"
	"github.com/spaghettifunk/titan/engine/rhi/vulkan"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML renderer configuration")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			core.LogError("%v", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	var backend rhi.GraphicsBackend
	var window *platform.Platform

	switch cfg.Backend {
	case "vulkan":
		p, err := platform.New()
		if err != nil {
			core.LogError("%v", err)
			os.Exit(1)
		}
		if err := p.Startup(cfg.ApplicationName, cfg.Width, cfg.Height); err != nil {
			os.Exit(1)
		}
		window = p
		backend = vulkan.New()
	default:
		backend = headless.New(headless.Options{})
	}

	device, err := rhi.NewDevice(backend, cfg)
	if err != nil {
		core.LogError("%v", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		_ = device.Shutdown()
		if window != nil {
			_ = window.Shutdown()
		}
		os.Exit(0)
	}()

	if err := run(device); err != nil {
		core.LogError("%v", err)
	}

	if err := device.Shutdown(); err != nil {
		core.LogError("shutdown: %v", err)
	}
	if window != nil {
		_ = window.Shutdown()
	}
}

// run pushes one triangle through the state layer: create the resources,
// commit a bind, then compile and cache the equivalent explicit pipeline.
func run(device *rhi.Device) error {
	vsBytecode := make([]byte, 64)
	psBytecode := make([]byte, 64)

	vertexModule, err := device.CreateShaderModule("triangle_vs", rhi.ShaderStageVertex, vsBytecode, "main")
	if err != nil {
		return err
	}
	pixelModule, err := device.CreateShaderModule("triangle_ps", rhi.ShaderStagePixel, psBytecode, "main")
	if err != nil {
		return err
	}

	shader, err := device.CreateShader(vertexModule, pixelModule, &rhi.ShaderConfig{
		Attributes: []rhi.VertexAttribute{
			{Name: "position", Location: 0, Format: rhi.FormatR32G32B32Float, Offset: 0},
			{Name: "color", Location: 1, Format: rhi.FormatR32G32B32Float, Offset: 12},
		},
		Stride: 24,
	})
	if err != nil {
		return err
	}

	vertices := make([]byte, 3*24)
	vertexBuffer, err := device.CreateVertexBuffer(vertices, 24)
	if err != nil {
		return err
	}
	indexBuffer, err := device.CreateIndexBuffer([]uint32{0, 1, 2})
	if err != nil {
		return err
	}

	state := rhi.NewPipelineState(device)
	state.SetShader(shader)
	state.SetVertexBuffer(vertexBuffer)
	state.SetIndexBuffer(indexBuffer)
	state.SetPrimitiveTopology(rhi.PrimitiveTopologyTriangleList)
	state.SetRasterizerState(device.CreateRasterizerState(rhi.CullModeBack, rhi.FillModeSolid, 1.0))
	state.SetBlendState(device.CreateBlendState(false, rhi.BlendFactorOne, rhi.BlendFactorZero, rhi.BlendOpAdd,
		rhi.BlendFactorOne, rhi.BlendFactorZero, rhi.BlendOpAdd, 0))
	state.SetDepthStencilState(device.CreateDepthStencilState(false, false, rhi.CompareOpAlways))
	state.SetViewport(rhi.Viewport{Width: 1280, Height: 720, DepthMax: 1})
	state.SetRenderTargetSwapchain()

	if !state.Bind() {
		core.LogError("pipeline state bind failed")
	}

	cache := rhi.NewPipelineCache(device)

	pipeline, err := cache.Get(state)
	if err != nil {
		return err
	}
	core.LogInfo("compiled pipeline %016x, cache holds %d entries", pipeline.Hash(), cache.Len())

	// A second lookup with unchanged state must not rebuild.
	if _, err := cache.Get(state); err != nil {
		return err
	}
	core.LogInfo("cache holds %d entries after repeat lookup", cache.Len())

	metrics := core.Metrics()
	core.LogInfo("bind calls: vs=%d ps=%d topology=%d vb=%d ib=%d viewport=%d",
		metrics.BindVertexShaderCount, metrics.BindPixelShaderCount, metrics.BindTopologyCount,
		metrics.BindBufferVertexCount, metrics.BindBufferIndexCount, metrics.BindViewportCount)

	cache.Clear()
	return shader.Release()
}
