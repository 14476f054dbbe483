// Package main provides the Ember ML CLI.
package main

import (
	"fmt"
	"os"

	"github.com/ember-ml/ember/backend/cpu"
	"github.com/ember-ml/ember/backend/webgpu"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Ember ML %s\n", version)
			return
		case "devices":
			printDevices()
			return
		}
	}

	fmt.Println("Ember ML - CPU/GPU tensor compute for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  devices    List available compute backends")
}

func printDevices() {
	host := cpu.New()
	fmt.Printf("  %s\n", host.Name())

	gpu, err := webgpu.New()
	if err != nil {
		fmt.Printf("  WebGPU: not available (%v)\n", err)
		return
	}
	defer gpu.Release()
	fmt.Printf("  %s\n", gpu.Name())
}
