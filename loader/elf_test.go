package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvemu/loader"
)

const (
	machineRISCV = 243
	machineX8664 = 62

	ptLoad   = 1
	ptInterp = 3
	ptNote   = 4

	pfX = 0x1
	pfW = 0x2
	pfR = 0x4
)

// testSegment describes one program header of a synthesized ELF file.
type testSegment struct {
	Type    uint32
	Flags   uint32
	Vaddr   uint64
	Data    []byte
	MemSize uint64
}

var _ = Describe("ELF Loader", func() {
	var tempDir string

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
	})

	code := []byte{
		0x13, 0x05, 0xa0, 0x02, // addi a0, zero, 42
		0x93, 0x08, 0xd0, 0x05, // addi a7, zero, 93
		0x73, 0x00, 0x00, 0x00, // ecall
	}

	Describe("Load", func() {
		Context("with a valid RISC-V ELF binary", func() {
			var elfPath string

			BeforeEach(func() {
				elfPath = filepath.Join(tempDir, "test.elf")
				writeELF(elfPath, machineRISCV, 0x10080, testSegment{
					Type: ptLoad, Flags: pfR | pfX, Vaddr: 0x10000, Data: code,
				})
			})

			It("should load without error", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog).NotTo(BeNil())
			})

			It("should extract the correct entry point", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.EntryPoint).To(Equal(uint64(0x10080)))
			})

			It("should correctly load segment contents", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments).To(HaveLen(1))

				seg := prog.Segments[0]
				Expect(seg.VirtAddr).To(Equal(uint64(0x10000)))
				Expect(seg.Data).To(Equal(code))
				Expect(seg.MemSize).To(Equal(uint64(len(code))))
			})

			It("should correctly report permissions", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())

				flags := prog.Segments[0].Flags
				Expect(flags & loader.SegmentFlagRead).NotTo(BeZero())
				Expect(flags & loader.SegmentFlagExecute).NotTo(BeZero())
				Expect(flags & loader.SegmentFlagWrite).To(BeZero())
			})
		})

		Context("with an invalid file", func() {
			It("should return error for non-existent file", func() {
				_, err := loader.Load("/nonexistent/path/to/file.elf")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to open"))
			})

			It("should return error for non-ELF file", func() {
				notElfPath := filepath.Join(tempDir, "not-elf.bin")
				Expect(os.WriteFile(notElfPath, []byte("not an elf file"), 0644)).To(Succeed())

				_, err := loader.Load(notElfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("ELF"))
			})

			It("should return error for empty file", func() {
				emptyPath := filepath.Join(tempDir, "empty.elf")
				Expect(os.WriteFile(emptyPath, []byte{}, 0644)).To(Succeed())

				_, err := loader.Load(emptyPath)
				Expect(err).To(HaveOccurred())
			})
		})

		It("should return error for x86-64 ELF", func() {
			elfPath := filepath.Join(tempDir, "x86.elf")
			writeELF(elfPath, machineX8664, 0)

			_, err := loader.Load(elfPath)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("not a RISC-V"))
		})

		It("should return error for 32-bit ELF", func() {
			elfPath := filepath.Join(tempDir, "elf32.elf")
			header := make([]byte, 52)
			copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
			header[4] = 1 // ELFCLASS32
			header[5] = 1
			header[6] = 1
			binary.LittleEndian.PutUint16(header[16:18], 2)
			binary.LittleEndian.PutUint16(header[18:20], machineRISCV)
			binary.LittleEndian.PutUint32(header[20:24], 1)
			Expect(os.WriteFile(elfPath, header, 0644)).To(Succeed())

			_, err := loader.Load(elfPath)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("not a 64-bit"))
		})

		It("should reject dynamically linked executables", func() {
			elfPath := filepath.Join(tempDir, "dynamic.elf")
			writeELF(elfPath, machineRISCV, 0x10000,
				testSegment{Type: ptInterp, Flags: pfR, Data: []byte("/lib/ld.so\x00")},
				testSegment{Type: ptLoad, Flags: pfR | pfX, Vaddr: 0x10000, Data: code},
			)

			_, err := loader.Load(elfPath)
			Expect(err).To(MatchError(ContainSubstring("dynamically linked")))
		})
	})

	Describe("Multi-segment ELFs", func() {
		It("should load multiple PT_LOAD segments in order", func() {
			elfPath := filepath.Join(tempDir, "multi-segment.elf")
			data := []byte{0x01, 0x02, 0x03, 0x04}
			writeELF(elfPath, machineRISCV, 0x10000,
				testSegment{Type: ptLoad, Flags: pfR | pfX, Vaddr: 0x10000, Data: code},
				testSegment{Type: ptLoad, Flags: pfR | pfW, Vaddr: 0x11000, Data: data},
			)

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(HaveLen(2))

			codeSeg, dataSeg := prog.Segments[0], prog.Segments[1]
			Expect(codeSeg.VirtAddr).To(Equal(uint64(0x10000)))
			Expect(codeSeg.Data).To(Equal(code))
			Expect(codeSeg.Flags & loader.SegmentFlagExecute).NotTo(BeZero())

			Expect(dataSeg.VirtAddr).To(Equal(uint64(0x11000)))
			Expect(dataSeg.Data).To(Equal(data))
			Expect(dataSeg.Flags & loader.SegmentFlagWrite).NotTo(BeZero())
		})
	})

	Describe("BSS segments", func() {
		It("should handle BSS segments where Memsz > Filesz", func() {
			elfPath := filepath.Join(tempDir, "bss.elf")
			initialData := []byte{0x01, 0x02, 0x03, 0x04}
			writeELF(elfPath, machineRISCV, 0x10000, testSegment{
				Type: ptLoad, Flags: pfR | pfW, Vaddr: 0x12000, Data: initialData, MemSize: 1024,
			})

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())

			bssSeg := prog.Segments[0]
			Expect(bssSeg.Data).To(Equal(initialData))
			Expect(bssSeg.MemSize).To(Equal(uint64(1024)))
		})

		It("should handle segments with zero file size", func() {
			elfPath := filepath.Join(tempDir, "zero-filesz.elf")
			writeELF(elfPath, machineRISCV, 0x10000, testSegment{
				Type: ptLoad, Flags: pfR | pfW, Vaddr: 0x13000, MemSize: 4096,
			})

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments[0].Data).To(BeEmpty())
			Expect(prog.Segments[0].MemSize).To(Equal(uint64(4096)))
		})
	})

	It("should return empty segments list for ELF with no PT_LOAD", func() {
		elfPath := filepath.Join(tempDir, "no-load.elf")
		writeELF(elfPath, machineRISCV, 0x10000, testSegment{Type: ptNote, Flags: pfR})

		prog, err := loader.Load(elfPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.Segments).To(BeEmpty())
		Expect(prog.EntryPoint).To(Equal(uint64(0x10000)))
	})
})

// writeELF writes a little-endian ELF64 executable with one program header
// per segment. Segment contents follow the headers back to back.
func writeELF(path string, machine uint16, entry uint64, segs ...testSegment) {
	const (
		ehdrSize = 64
		phdrSize = 56
	)

	header := make([]byte, ehdrSize)
	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 2                                   // 64-bit
	header[5] = 1                                   // little endian
	header[6] = 1                                   // version
	binary.LittleEndian.PutUint16(header[16:18], 2) // executable
	binary.LittleEndian.PutUint16(header[18:20], machine)
	binary.LittleEndian.PutUint32(header[20:24], 1)
	binary.LittleEndian.PutUint64(header[24:32], entry)
	binary.LittleEndian.PutUint64(header[32:40], ehdrSize)
	binary.LittleEndian.PutUint16(header[52:54], ehdrSize)
	binary.LittleEndian.PutUint16(header[54:56], phdrSize)
	binary.LittleEndian.PutUint16(header[56:58], uint16(len(segs)))

	out := header
	offset := uint64(ehdrSize + phdrSize*len(segs))
	var payload []byte
	for _, seg := range segs {
		memSize := seg.MemSize
		if memSize == 0 {
			memSize = uint64(len(seg.Data))
		}

		phdr := make([]byte, phdrSize)
		binary.LittleEndian.PutUint32(phdr[0:4], seg.Type)
		binary.LittleEndian.PutUint32(phdr[4:8], seg.Flags)
		binary.LittleEndian.PutUint64(phdr[8:16], offset)
		binary.LittleEndian.PutUint64(phdr[16:24], seg.Vaddr)
		binary.LittleEndian.PutUint64(phdr[24:32], seg.Vaddr)
		binary.LittleEndian.PutUint64(phdr[32:40], uint64(len(seg.Data)))
		binary.LittleEndian.PutUint64(phdr[40:48], memSize)
		binary.LittleEndian.PutUint64(phdr[48:56], 0x1000)

		out = append(out, phdr...)
		payload = append(payload, seg.Data...)
		offset += uint64(len(seg.Data))
	}
	out = append(out, payload...)

	Expect(os.WriteFile(path, out, 0644)).To(Succeed())
}
