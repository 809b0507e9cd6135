package channel

// Channel types shared by the built-in platforms
var (
	// Collection hands a materialized dataset over in the memory of the driving process
	Collection = Descriptor{Name: "collection", Medium: MemoryMedium, Reusable: true, BytesPerRecord: 100}
	// ObjectFile spills a dataset to a compressed file of encoded elements
	ObjectFile = Descriptor{Name: "file.object", Medium: FileMedium, Reusable: true, BytesPerRecord: 100}
)
