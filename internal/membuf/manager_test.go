package membuf

import "testing"

func TestAllocNeverReturnsSourceAddress(t *testing.T) {
	m := New(nil)
	src := make([]byte, 64)
	m.Init(src, nil)

	rec, err := m.Alloc(src, AllocInfo{Width: 4, Height: 4, RowStride: 16, Format: 1})
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if sameAddr(rec.Addr, src) {
		t.Fatal("Alloc returned a record aliasing the source address")
	}
}

func TestAllocReusesMatchingScratchRecord(t *testing.T) {
	m := New(nil)
	src := make([]byte, 64)
	m.Init(src, nil)

	info := AllocInfo{Width: 4, Height: 4, RowStride: 16, Format: 1}
	first, err := m.Alloc(src, info)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	second, err := m.Alloc(src, info)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if !sameAddr(first.Addr, second.Addr) {
		t.Fatal("expected second Alloc to reuse the first scratch record")
	}
}

func TestAllocDefaultsToDMAUnderGPUPath(t *testing.T) {
	m := New(nil)
	m.SetExecutionPath(PathGPU)

	rec, err := m.Alloc(nil, AllocInfo{Width: 4, Height: 4, RowStride: 16, Format: 1, Backing: BackingDefault})
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if rec.Info.Backing != BackingDMA {
		t.Fatalf("expected DMA backing under GPU path, got %v", rec.Info.Backing)
	}
}

func TestAllocDefaultsToHeapUnderCPUPath(t *testing.T) {
	m := New(nil)
	m.SetExecutionPath(PathCPU)

	rec, err := m.Alloc(nil, AllocInfo{Width: 4, Height: 4, RowStride: 16, Format: 1, Backing: BackingDefault})
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if rec.Info.Backing != BackingHeap {
		t.Fatalf("expected HEAP backing under CPU path, got %v", rec.Info.Backing)
	}
}

func TestAllocSetsHDRVividMetadataOnDMA(t *testing.T) {
	m := New(nil)
	m.SetExecutionPath(PathGPU)

	rec, err := m.Alloc(nil, AllocInfo{Width: 4, Height: 4, RowStride: 16, Format: 1, ColorSpace: ColorSpaceHDR10, Backing: BackingDefault})
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	meta := rec.Metadata()
	if meta == nil {
		t.Fatal("expected HDR metadata on DMA allocation for HDR10 color space")
	}
	if meta.Type != HDRMetadataVividSingle {
		t.Fatalf("expected HDR_VIVID_SINGLE metadata type, got %v", meta.Type)
	}
}

func TestDeinitKeepsScratchDropsInputOutput(t *testing.T) {
	m := New(nil)
	input := &MemoryRecord{Addr: make([]byte, 16), Role: RoleInput}
	output := &MemoryRecord{Addr: make([]byte, 16), Role: RoleOutput}
	m.AddMemory(input)
	m.AddMemory(output)

	scratch, err := m.Alloc(nil, AllocInfo{Width: 2, Height: 2, RowStride: 8, Format: 1})
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	m.Deinit()

	if m.GetMemoryByAddr(input.Addr) != nil {
		t.Fatal("Deinit should have removed the INPUT record")
	}
	if m.GetMemoryByAddr(output.Addr) != nil {
		t.Fatal("Deinit should have removed the OUTPUT record")
	}
	if m.GetScratchMemoryByAddr(scratch.Addr) == nil {
		t.Fatal("Deinit should have kept the scratch record")
	}
}

func TestClearMemoryRemovesEverything(t *testing.T) {
	m := New(nil)
	rec, err := m.Alloc(nil, AllocInfo{Width: 2, Height: 2, RowStride: 8, Format: 1})
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	m.ClearMemory()
	if m.GetMemoryByAddr(rec.Addr) != nil {
		t.Fatal("ClearMemory should remove scratch records too")
	}
}

func TestRemoveMemory(t *testing.T) {
	m := New(nil)
	rec := &MemoryRecord{Addr: make([]byte, 8), Role: RoleInput}
	m.AddMemory(rec)
	m.RemoveMemory(rec.Addr)
	if m.GetMemoryByAddr(rec.Addr) != nil {
		t.Fatal("RemoveMemory should have dropped the record")
	}
}
