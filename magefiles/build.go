//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles the demo shaders to SPIR-V.
func (Build) Shaders() error {
	if _, err := executeCmd("glslc", withArgs("shaders/triangle.vert", "-o", "shaders/triangle_vs.spv"), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd("glslc", withArgs("shaders/triangle.frag", "-o", "shaders/triangle_ps.spv"), withStream()); err != nil {
		return err
	}
	return nil
}

// Builds the engine binary.
func (Build) Engine() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/titan", "."), withStream()); err != nil {
		return err
	}
	return nil
}
