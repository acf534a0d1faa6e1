package vmware

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"
)

const ImportSnapshotName = "fakevddk-import-snapshot"

type CompleteVirtualMachine struct {
	M *object.VirtualMachine
	O *mo.VirtualMachine
}

func LoadVirtualMachine(ctx context.Context, vm *object.VirtualMachine) (*CompleteVirtualMachine, error) {
	var o mo.VirtualMachine
	if err := vm.Properties(ctx, vm.Reference(), []string{"name", "config", "snapshot"}, &o); err != nil {
		return nil, fmt.Errorf("failed to load VM properties: %w", err)
	}
	return &CompleteVirtualMachine{M: vm, O: &o}, nil
}

type DiskInfo struct {
	Key           int32
	Label         string
	FileName      string
	CapacityBytes int64
	Boot          bool
}

// Disks lists the VM's disks, read from snapshot when it is not nil.
func (c *CompleteVirtualMachine) Disks(ctx context.Context, snapshot *types.ManagedObjectReference) ([]DiskInfo, error) {
	devices := c.O.Config.Hardware.Device
	if snapshot != nil {
		var properties mo.VirtualMachineSnapshot
		if err := c.M.Properties(ctx, *snapshot, []string{"config.hardware"}, &properties); err != nil {
			return nil, fmt.Errorf("failed to load snapshot hardware: %w", err)
		}
		devices = properties.Config.Hardware.Device
	}
	boot := FindBootDiskKey(c.O)

	var disks []DiskInfo
	for _, device := range devices {
		disk, ok := device.(*types.VirtualDisk)
		if !ok {
			continue
		}
		backing, ok := disk.Backing.(types.BaseVirtualDeviceFileBackingInfo)
		if !ok {
			slog.Warn("Skipping disk without file backing", "diskKey", disk.Key)
			continue
		}
		info := DiskInfo{
			Key:           disk.Key,
			FileName:      backing.GetVirtualDeviceFileBackingInfo().FileName,
			CapacityBytes: disk.CapacityInBytes,
			Boot:          boot != nil && *boot == disk.Key,
		}
		if d := disk.DeviceInfo; d != nil {
			info.Label = d.GetDescription().Label
		}
		disks = append(disks, info)
	}
	return disks, nil
}

// FindSnapshot returns the snapshot called name, or nil.
func (c *CompleteVirtualMachine) FindSnapshot(name string) *types.ManagedObjectReference {
	if c.O.Snapshot == nil {
		return nil
	}
	return findSnapshotInTree(c.O.Snapshot.RootSnapshotList, name)
}

func findSnapshotInTree(tree []types.VirtualMachineSnapshotTree, name string) *types.ManagedObjectReference {
	for _, node := range tree {
		if node.Name == name {
			ref := node.Snapshot
			return &ref
		}
		if ref := findSnapshotInTree(node.ChildSnapshotList, name); ref != nil {
			return ref
		}
	}
	return nil
}

func (c *CompleteVirtualMachine) CreateImportSnapshot(ctx context.Context) (*types.ManagedObjectReference, error) {
	task, err := c.M.CreateSnapshot(ctx, ImportSnapshotName, "Ephemeral snapshot for fake VDDK import", false, false)
	if err != nil {
		return nil, err
	}
	info, err := task.WaitForResult(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}
	ref, ok := info.Result.(types.ManagedObjectReference)
	if !ok {
		return nil, fmt.Errorf("failed to create snapshot: %v", info.Result)
	}
	return &ref, c.refresh(ctx)
}

// RemoveImportSnapshot consolidates a snapshot left over by a previous run.
func (c *CompleteVirtualMachine) RemoveImportSnapshot(ctx context.Context) error {
	ref := c.FindSnapshot(ImportSnapshotName)
	if ref == nil {
		return nil
	}
	consolidate := true
	task, err := c.M.RemoveSnapshot(ctx, ref.Value, false, &consolidate)
	if err != nil {
		return err
	}
	if err := task.Wait(ctx); err != nil {
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	return c.refresh(ctx)
}

func (c *CompleteVirtualMachine) refresh(ctx context.Context) error {
	fresh, err := LoadVirtualMachine(ctx, c.M)
	if err != nil {
		return err
	}
	c.O = fresh.O
	return nil
}
