package vmware

import (
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"
)

// FindBootDiskKey returns the key of the disk the VM boots from, or nil.
func FindBootDiskKey(vm *mo.VirtualMachine) *int32 {
	if vm.Config == nil {
		return nil
	}
	if vm.Config.BootOptions != nil {
		for _, dev := range vm.Config.BootOptions.BootOrder {
			if d, ok := dev.(*types.VirtualMachineBootOptionsBootableDiskDevice); ok {
				k := int32(d.DeviceKey)
				return &k
			}
		}
	}
	// Heuristic fallback: smallest (controller.busNumber, unitNumber) ignoring SCSI unit 7.
	var (
		bestKey  *int32
		bestBus  = int32(1 << 30)
		bestUnit = int32(1 << 30)
	)
	busByCtl := map[int32]int32{}
	for _, dv := range vm.Config.Hardware.Device {
		switch c := dv.(type) {
		case *types.VirtualSATAController:
			busByCtl[c.Key] = c.BusNumber
		case *types.VirtualNVMEController:
			busByCtl[c.Key] = c.BusNumber
		case types.BaseVirtualSCSIController:
			ctl := c.GetVirtualSCSIController()
			busByCtl[ctl.Key] = ctl.BusNumber
		}
	}
	for _, dv := range vm.Config.Hardware.Device {
		disk, ok := dv.(*types.VirtualDisk)
		if !ok || disk.UnitNumber == nil {
			continue
		}
		unit := *disk.UnitNumber
		if isSCSIController(vm, disk.ControllerKey) && unit == 7 {
			continue
		}
		bus := busByCtl[disk.ControllerKey]
		if bus < bestBus || (bus == bestBus && unit < bestUnit) {
			bestBus = bus
			bestUnit = unit
			k := disk.Key
			bestKey = &k
		}
	}
	return bestKey
}

func isSCSIController(vm *mo.VirtualMachine, controllerKey int32) bool {
	for _, dv := range vm.Config.Hardware.Device {
		if ctl, ok := dv.(types.BaseVirtualSCSIController); ok && ctl.GetVirtualSCSIController().Key == controllerKey {
			return true
		}
	}
	return false
}
