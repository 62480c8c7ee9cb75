package insts_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvemu/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	DescribeTable("standard encodings",
		func(word uint32, expected insts.Instruction) {
			inst, err := decoder.Decode(word)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst).To(Equal(expected))
		},
		Entry("addi a0, zero, 42", uint32(0x02a00513),
			insts.Instruction{Op: insts.OpADDI, Rd: 10, Imm: 42}),
		Entry("addi a0, zero, -1", uint32(0xfff00513),
			insts.Instruction{Op: insts.OpADDI, Rd: 10, Imm: -1}),
		Entry("lui a0, 0x12345", uint32(0x12345537),
			insts.Instruction{Op: insts.OpLUI, Rd: 10, Imm: 0x12345000}),
		Entry("auipc a0, 1", uint32(0x00001517),
			insts.Instruction{Op: insts.OpAUIPC, Rd: 10, Imm: 0x1000}),
		Entry("ld a0, -16(sp)", uint32(0xff013503),
			insts.Instruction{Op: insts.OpLD, Rd: 10, Rs1: 2, Imm: -16}),
		Entry("sd ra, 8(sp)", uint32(0x00113423),
			insts.Instruction{Op: insts.OpSD, Rs1: 2, Rs2: 1, Imm: 8}),
		Entry("sw a1, -4(a0)", uint32(0xfeb52e23),
			insts.Instruction{Op: insts.OpSW, Rs1: 10, Rs2: 11, Imm: -4}),
		Entry("srli a0, a0, 1", uint32(0x00155513),
			insts.Instruction{Op: insts.OpSRLI, Rd: 10, Rs1: 10, Imm: 1}),
		Entry("srai a0, a0, 63", uint32(0x43f55513),
			insts.Instruction{Op: insts.OpSRAI, Rd: 10, Rs1: 10, Imm: 63}),
		Entry("sraiw a0, a0, 31", uint32(0x41f5551b),
			insts.Instruction{Op: insts.OpSRAIW, Rd: 10, Rs1: 10, Imm: 31}),
		Entry("sub a0, a0, a1", uint32(0x40b50533),
			insts.Instruction{Op: insts.OpSUB, Rd: 10, Rs1: 10, Rs2: 11}),
		Entry("mul a0, a0, a1", uint32(0x02b50533),
			insts.Instruction{Op: insts.OpMUL, Rd: 10, Rs1: 10, Rs2: 11}),
		Entry("remuw a0, a0, a1", uint32(0x02b5753b),
			insts.Instruction{Op: insts.OpREMUW, Rd: 10, Rs1: 10, Rs2: 11}),
		Entry("beq a0, a1, 16", uint32(0x00b50863),
			insts.Instruction{Op: insts.OpBEQ, Rs1: 10, Rs2: 11, Imm: 16}),
		Entry("bnez a0, -8", uint32(0xfe051ce3),
			insts.Instruction{Op: insts.OpBNE, Rs1: 10, Imm: -8}),
		Entry("jal ra, 8", uint32(0x008000ef),
			insts.Instruction{Op: insts.OpJAL, Rd: 1, Imm: 8, IsControlTransfer: true}),
		Entry("j -4", uint32(0xffdff06f),
			insts.Instruction{Op: insts.OpJAL, Imm: -4, IsControlTransfer: true}),
		Entry("jalr ra, 0(a0)", uint32(0x000500e7),
			insts.Instruction{Op: insts.OpJALR, Rd: 1, Rs1: 10, IsControlTransfer: true}),
		Entry("ecall", uint32(0x00000073),
			insts.Instruction{Op: insts.OpECALL, IsControlTransfer: true}),
		Entry("ebreak", uint32(0x00100073),
			insts.Instruction{Op: insts.OpEBREAK, IsControlTransfer: true}),
		Entry("fence", uint32(0x0ff0000f),
			insts.Instruction{Op: insts.OpFENCE}),
		Entry("fence.i", uint32(0x0000100f),
			insts.Instruction{Op: insts.OpFENCEI}),
		Entry("frcsr a0", uint32(0x00302573),
			insts.Instruction{Op: insts.OpCSRRS, Rd: 10, Csr: 3}),
		Entry("fsrmi 2", uint32(0x00215073),
			insts.Instruction{Op: insts.OpCSRRWI, Rs1: 2, Csr: 2}),
		Entry("rdcycle a0", uint32(0xc0002573),
			insts.Instruction{Op: insts.OpCSRRS, Rd: 10, Csr: 0xc00}),
		Entry("fadd.d fa0, fa0, fa1", uint32(0x02b57553),
			insts.Instruction{Op: insts.OpFADDD, Rd: 10, Rs1: 10, Rs2: 11, Rm: 7}),
		Entry("fmadd.s fa0, fa1, fa2, fa3", uint32(0x68c58543),
			insts.Instruction{Op: insts.OpFMADDS, Rd: 10, Rs1: 11, Rs2: 12, Rs3: 13}),
		Entry("fcvt.w.d a0, fa0, rtz", uint32(0xc2051553),
			insts.Instruction{Op: insts.OpFCVTWD, Rd: 10, Rs1: 10, Rm: 1}),
		Entry("fcvt.s.d fa0, fa1", uint32(0x4015f553),
			insts.Instruction{Op: insts.OpFCVTSD, Rd: 10, Rs1: 11, Rs2: 1, Rm: 7}),
		Entry("fmv.x.d a0, fa0", uint32(0xe2050553),
			insts.Instruction{Op: insts.OpFMVXD, Rd: 10, Rs1: 10}),
		Entry("fclass.s a0, fa0", uint32(0xe0051553),
			insts.Instruction{Op: insts.OpFCLASSS, Rd: 10, Rs1: 10, Rm: 1}),
	)

	DescribeTable("rejected encodings",
		func(word uint32) {
			_, err := decoder.Decode(word)

			var decodeErr *insts.DecodeError
			Expect(errors.As(err, &decodeErr)).To(BeTrue())
			Expect(decodeErr.Word).To(Equal(word))
		},
		Entry("unsupported major opcode", uint32(0x0000007f)),
		Entry("floating-point load width 0", uint32(0x00000007)),
		Entry("slli with imm[11:6] set", uint32(0x04051513)),
		Entry("jalr with funct3 1", uint32(0x00051067)),
		Entry("mret", uint32(0x30200073)),
		Entry("fsqrt with rs2 set", uint32(0x58100553)),
		Entry("load funct3 7", uint32(0x00007503)),
		Entry("branch funct3 2", uint32(0x00002063)),
	)

	It("should describe the failing word", func() {
		_, err := decoder.Decode(0x0000007f)
		Expect(err).To(MatchError(ContainSubstring("0x0000007f")))
	})
})
