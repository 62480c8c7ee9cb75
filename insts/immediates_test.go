package insts_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvemu/insts"
)

// layout maps immediate bit positions to instruction bit positions.
type layout map[uint]uint

// seq maps immediate bits lo..hi onto consecutive instruction bits
// starting at at.
func seq(l layout, lo, hi, at uint) layout {
	for i := lo; i <= hi; i++ {
		l[i] = at + i - lo
	}
	return l
}

// scatter places imm into a word according to l. Every bit outside the
// layout below width is set, so extractors must mask their fields.
func scatter(imm int32, l layout, width uint) uint32 {
	var used, word uint32
	for from, to := range l {
		used |= 1 << to
		if uint32(imm)>>from&1 != 0 {
			word |= 1 << to
		}
	}
	mask := uint32(1)<<width - 1
	return word | ^used&mask
}

var (
	layoutI = seq(layout{}, 0, 11, 20)
	layoutS = seq(seq(layout{}, 0, 4, 7), 5, 11, 25)
	layoutB = func() layout {
		l := seq(seq(layout{}, 1, 4, 8), 5, 10, 25)
		l[11], l[12] = 7, 31
		return l
	}()
	layoutU = seq(layout{}, 12, 31, 12)
	layoutJ = func() layout {
		l := seq(seq(layout{}, 1, 10, 21), 12, 19, 12)
		l[11], l[20] = 20, 31
		return l
	}()

	layoutADDI4SPN = layout{4: 11, 5: 12, 6: 7, 7: 8, 8: 9, 9: 10, 2: 6, 3: 5}
	layoutCLW      = layout{3: 10, 4: 11, 5: 12, 2: 6, 6: 5}
	layoutCLD      = layout{3: 10, 4: 11, 5: 12, 6: 5, 7: 6}
	layoutCI       = layout{0: 2, 1: 3, 2: 4, 3: 5, 4: 6, 5: 12}
	layoutADDI16SP = layout{9: 12, 4: 6, 6: 5, 7: 3, 8: 4, 5: 2}
	layoutLUI      = layout{12: 2, 13: 3, 14: 4, 15: 5, 16: 6, 17: 12}
	layoutLWSP     = layout{5: 12, 2: 4, 3: 5, 4: 6, 6: 2, 7: 3}
	layoutLDSP     = layout{5: 12, 3: 5, 4: 6, 6: 2, 7: 3, 8: 4}
	layoutSWSP     = layout{2: 9, 3: 10, 4: 11, 5: 12, 6: 7, 7: 8}
	layoutSDSP     = layout{3: 10, 4: 11, 5: 12, 6: 7, 7: 8, 8: 9}
	layoutCJ       = layout{11: 12, 4: 11, 8: 9, 9: 10, 10: 8, 6: 7, 7: 6, 1: 3, 2: 4, 3: 5, 5: 2}
	layoutCB       = layout{8: 12, 3: 10, 4: 11, 6: 5, 7: 6, 1: 3, 2: 4, 5: 2}
)

// immRange describes every encodable value of an immediate.
type immRange struct {
	lo, hi, step int32
}

// mismatches returns the values in r that extract differently after
// encoding.
func mismatches(r immRange, encode func(int32) int32) []string {
	var bad []string
	for w := int64(r.lo); w <= int64(r.hi); w += int64(r.step) {
		v := int32(w)
		if got := encode(v); got != v {
			bad = append(bad, fmt.Sprintf("%d -> %d", v, got))
		}
	}
	return bad
}

var _ = Describe("Immediate encodings", func() {
	DescribeTable("standard formats decode every encodable value",
		func(extract func(uint32) int32, l layout, r immRange) {
			encode := func(v int32) int32 { return extract(scatter(v, l, 32)) }
			Expect(mismatches(r, encode)).To(BeEmpty())
			Expect(encode(r.lo)).To(Equal(r.lo))
			Expect(encode(r.hi)).To(Equal(r.hi))
		},
		Entry("I", insts.ImmI, layoutI, immRange{-2048, 2047, 1}),
		Entry("S", insts.ImmS, layoutS, immRange{-2048, 2047, 1}),
		Entry("B", insts.ImmB, layoutB, immRange{-4096, 4094, 2}),
		Entry("U", insts.ImmU, layoutU, immRange{-1 << 31, 0x7ffff000, 0x1000}),
		Entry("J", insts.ImmJ, layoutJ, immRange{-1 << 20, 1<<20 - 2, 2}),
	)

	It("should decode the B-type word for +2046", func() {
		// bne x0, x0, 2046: imm[11] = 0, imm[10:5] = 0x3f, imm[4:1] = 0xf.
		word := uint32(0x3f<<25 | 0xf<<8 | 1<<12 | 0x63)
		Expect(insts.ImmB(word)).To(Equal(int32(2046)))
		Expect(scatter(2046, layoutB, 32) & 0xfe000f80).To(Equal(word & 0xfe000f80))
	})

	DescribeTable("compressed formats decode every encodable value",
		func(extract func(uint16) int32, l layout, r immRange) {
			encode := func(v int32) int32 { return extract(uint16(scatter(v, l, 16))) }
			Expect(mismatches(r, encode)).To(BeEmpty())
			Expect(encode(r.lo)).To(Equal(r.lo))
			Expect(encode(r.hi)).To(Equal(r.hi))
		},
		Entry("C.ADDI4SPN", insts.CImmADDI4SPN, layoutADDI4SPN, immRange{0, 1020, 4}),
		Entry("C.LW/C.SW/C.FLW", insts.CImmLW, layoutCLW, immRange{0, 124, 4}),
		Entry("C.LD/C.SD/C.FLD/C.FSD", insts.CImmLD, layoutCLD, immRange{0, 248, 8}),
		Entry("CI signed", insts.CImmCI, layoutCI, immRange{-32, 31, 1}),
		Entry("CI shift amount", insts.CShamt, layoutCI, immRange{0, 63, 1}),
		Entry("C.ADDI16SP", insts.CImmADDI16SP, layoutADDI16SP, immRange{-512, 496, 16}),
		Entry("C.LUI", insts.CImmLUI, layoutLUI, immRange{-32 << 12, 31 << 12, 1 << 12}),
		Entry("C.LWSP/C.FLWSP", insts.CImmLWSP, layoutLWSP, immRange{0, 252, 4}),
		Entry("C.LDSP/C.FLDSP", insts.CImmLDSP, layoutLDSP, immRange{0, 504, 8}),
		Entry("C.SWSP/C.FSWSP", insts.CImmSWSP, layoutSWSP, immRange{0, 252, 4}),
		Entry("C.SDSP/C.FSDSP", insts.CImmSDSP, layoutSDSP, immRange{0, 504, 8}),
		Entry("C.J/C.JAL", insts.CImmJ, layoutCJ, immRange{-2048, 2046, 2}),
		Entry("C.BEQZ/C.BNEZ", insts.CImmB, layoutCB, immRange{-256, 254, 2}),
	)

	It("should take shift amounts with bit 5 set as unsigned", func() {
		// c.slli a0, 63
		Expect(insts.CShamt(0x157e)).To(Equal(int32(63)))
		Expect(insts.CImmCI(0x157e)).To(Equal(int32(-1)))
	})

	Describe("floating-point stack accesses", func() {
		var decoder *insts.Decoder

		BeforeEach(func() {
			decoder = insts.NewDecoder()
		})

		DescribeTable("expand with the scaled offset",
			func(word uint32, op insts.Op, imm int32) {
				insn, err := decoder.Decode(word)
				Expect(err).NotTo(HaveOccurred())
				Expect(insn.Op).To(Equal(op))
				Expect(insn.Rs1).To(Equal(int8(2)))
				Expect(insn.Imm).To(Equal(imm))
				Expect(insn.IsCompressed).To(BeTrue())
			},
			Entry("c.fldsp fa0, 504(sp)", uint32(0x357e), insts.OpFLD, int32(504)),
			Entry("c.fsdsp fa0, 504(sp)", uint32(0xbfaa), insts.OpFSD, int32(504)),
			Entry("c.swsp a0, 252(sp)", uint32(0xdfaa), insts.OpSW, int32(252)),
		)
	})
})
