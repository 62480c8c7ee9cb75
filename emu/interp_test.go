package emu_test

import (
	"encoding/binary"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvemu/emu"
	"github.com/sarchlab/rvemu/insts"
	"github.com/sarchlab/rvemu/loader"
)

var _ = Describe("Interpreter", func() {
	Describe("end to end", func() {
		var e *emu.Emulator

		BeforeEach(func() {
			e = newTestEmulator()
			code := program(
				addi(emu.RegA0, emu.RegZero, 42),
				wordECALL,
			)
			prog := &loader.Program{
				EntryPoint: testEntry,
				Segments: []loader.Segment{{
					VirtAddr: testEntry,
					Data:     code,
					MemSize:  uint64(len(code)),
					Flags:    loader.SegmentFlagRead | loader.SegmentFlagExecute,
				}},
			}
			Expect(e.LoadELF(prog)).To(Succeed())
		})

		It("should stop at the first ECALL after one block", func() {
			Expect(e.ExecBlock()).To(Succeed())

			s := e.State()
			Expect(s.X[emu.RegA0]).To(Equal(uint64(42)))
			Expect(s.ExitReason).To(Equal(emu.ExitSystemCall))
			Expect(s.PC).To(Equal(uint64(testEntry + 4)))
			Expect(s.ReenterPC).To(Equal(s.PC + 4))
		})
	})

	It("should run to the exit syscall", func() {
		e := newTestEmulator()
		code := program(
			addi(emu.RegA0, emu.RegZero, 42),
			addi(emu.RegA7, emu.RegZero, 93),
			wordECALL,
		)
		Expect(e.LoadProgram(testEntry, code)).To(Succeed())

		status, err := e.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(int64(42)))
		Expect(e.InstructionCount()).To(Equal(uint64(3)))
	})

	It("should resume after an ECALL at the entry point", func() {
		e := newTestEmulator()
		Expect(e.LoadProgram(testEntry, program(wordECALL))).To(Succeed())

		Expect(e.ExecBlock()).To(Succeed())
		Expect(e.State().ReenterPC).To(Equal(uint64(testEntry + 4)))
	})

	Describe("compressed instructions", func() {
		It("should execute C.ADDI4SPN like the equivalent ADDI", func() {
			compressed := newTestEmulator()
			compressed.State().X[emu.RegSP] = 0x8000
			code := []byte{0x2c, 0x00} // c.addi4spn a1, sp, 8
			code = binary.LittleEndian.AppendUint32(code, wordECALL)
			Expect(compressed.LoadProgram(testEntry, code)).To(Succeed())
			Expect(compressed.ExecBlock()).To(Succeed())

			full := newTestEmulator()
			full.State().X[emu.RegSP] = 0x8000
			runToECALL(full, addi(emu.RegA1, emu.RegSP, 8))

			Expect(compressed.State().X[emu.RegA1]).To(Equal(full.State().X[emu.RegA1]))
			Expect(compressed.State().PC).To(Equal(uint64(testEntry + 2)))
			Expect(compressed.State().ReenterPC).To(Equal(uint64(testEntry + 6)))
		})

		It("should mix 16-bit and 32-bit instructions", func() {
			e := newTestEmulator()
			code := []byte{0x15, 0x45} // c.li a0, 5
			code = binary.LittleEndian.AppendUint32(code, addi(emu.RegA0, emu.RegA0, 1))
			code = append(code, 0x05, 0x05) // c.addi a0, 1
			code = binary.LittleEndian.AppendUint32(code, wordECALL)
			Expect(e.LoadProgram(testEntry, code)).To(Succeed())

			Expect(e.ExecBlock()).To(Succeed())
			Expect(e.State().X[emu.RegA0]).To(Equal(uint64(7)))
			Expect(e.State().PC).To(Equal(uint64(testEntry + 8)))
		})
	})

	Describe("fatal conditions", func() {
		It("should fail on a reserved encoding", func() {
			e := newTestEmulator()
			Expect(e.LoadProgram(testEntry, program(0x00000007))).To(Succeed())

			err := e.ExecBlock()

			var decodeErr *insts.DecodeError
			Expect(errors.As(err, &decodeErr)).To(BeTrue())
			Expect(decodeErr.Word).To(Equal(uint32(0x00000007)))
		})

		It("should fail on the all-zero halfword", func() {
			e := newTestEmulator()
			Expect(e.LoadProgram(testEntry, []byte{0, 0, 0, 0})).To(Succeed())

			var decodeErr *insts.DecodeError
			Expect(errors.As(e.ExecBlock(), &decodeErr)).To(BeTrue())
		})

		It("should stop at the instruction limit", func() {
			e := newTestEmulator(emu.WithMaxInstructions(100))
			Expect(e.LoadProgram(testEntry, program(encodeJ(emu.RegZero, 0)))).To(Succeed())

			Expect(e.ExecBlock()).To(MatchError(emu.ErrInstructionLimit))
			Expect(e.InstructionCount()).To(Equal(uint64(100)))
		})
	})

	Describe("CSR access", func() {
		It("should read the floating-point CSRs as zero", func() {
			e := newTestEmulator()
			e.State().X[emu.RegA0] = 99
			runToECALL(e, encodeI(opSystem, 2, emu.RegA0, emu.RegZero, 0x003)) // frcsr a0
			Expect(e.State().X[emu.RegA0]).To(Equal(uint64(0)))
		})

		It("should reject other CSRs", func() {
			e := newTestEmulator()
			code := program(encodeI(opSystem, 2, emu.RegA0, emu.RegZero, 0xc00), wordECALL) // rdcycle
			Expect(e.LoadProgram(testEntry, code)).To(Succeed())

			var unimpl *emu.UnimplementedError
			Expect(errors.As(e.ExecBlock(), &unimpl)).To(BeTrue())
			Expect(unimpl.Feature).To(ContainSubstring("0xc00"))
		})
	})

	Describe("decode cache", func() {
		It("should serve repeated fetches from the cache", func() {
			e := newTestEmulator(emu.WithDecodeCache(64, 2))
			e.State().X[emu.RegA0] = 10
			runToECALL(e,
				addi(emu.RegA0, emu.RegA0, -1),
				encodeB(1, emu.RegA0, emu.RegZero, -4),
			)

			stats := e.DecodeCache().Stats()
			Expect(stats.Misses).To(Equal(uint64(3)))
			Expect(stats.Hits).To(Equal(uint64(18)))
		})

		It("should be disabled with zero sets", func() {
			e := newTestEmulator(emu.WithDecodeCache(0, 0))
			runToECALL(e, addi(emu.RegA0, emu.RegZero, 1))
			Expect(e.DecodeCache()).To(BeNil())
		})

		It("should decode code rewritten before FENCE.I afresh", func() {
			e := newTestEmulator()
			e.State().X[emu.RegA2] = uint64(addi(emu.RegA0, emu.RegZero, 2))
			e.State().X[emu.RegA3] = testEntry
			code := program(
				addi(emu.RegA0, emu.RegZero, 1),
				encodeB(1, emu.RegT0, emu.RegZero, 20),
				encodeS(opStore, 2, emu.RegA3, emu.RegA2, 0),
				encodeI(opMiscMem, 1, 0, 0, 0), // fence.i
				addi(emu.RegT0, emu.RegZero, 1),
				encodeJ(emu.RegZero, -20),
				wordECALL,
			)
			Expect(e.LoadProgram(testEntry, code)).To(Succeed())

			Expect(e.ExecBlock()).To(Succeed())
			Expect(e.State().X[emu.RegA0]).To(Equal(uint64(2)))
			Expect(e.DecodeCache().Stats().Flushes).To(BeNumerically(">=", 1))
		})
	})
})

var _ = Describe("DecodeCache", func() {
	It("should evict the least recently used way", func() {
		cache := emu.NewDecodeCache(1, 2)
		cache.Insert(0x100, insts.Instruction{Op: insts.OpADD})
		cache.Insert(0x104, insts.Instruction{Op: insts.OpSUB})

		_, ok := cache.Lookup(0x100)
		Expect(ok).To(BeTrue())

		cache.Insert(0x108, insts.Instruction{Op: insts.OpXOR})

		_, ok = cache.Lookup(0x104)
		Expect(ok).To(BeFalse())
		insn, ok := cache.Lookup(0x100)
		Expect(ok).To(BeTrue())
		Expect(insn.Op).To(Equal(insts.OpADD))
		Expect(cache.Stats().Evictions).To(Equal(uint64(1)))
	})

	It("should forget everything on Flush", func() {
		cache := emu.NewDecodeCache(4, 1)
		cache.Insert(0x100, insts.Instruction{Op: insts.OpADD})
		cache.Flush()

		_, ok := cache.Lookup(0x100)
		Expect(ok).To(BeFalse())
	})
})
