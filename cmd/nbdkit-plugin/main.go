package main

import (
	"C"
	"unsafe"

	"libguestfs.org/nbdkit"
)

// nbdkit loads the plugin as "vddk" so it stands in for the real one.
const pluginName = "vddk"

//export plugin_init
func plugin_init() unsafe.Pointer {
	return nbdkit.PluginInitialize(pluginName, &FakeVddkPlugin{})
}

func main() {}
