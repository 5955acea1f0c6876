package convert

// branchOpCodes lists the CIL opcodes whose i4 operand is a branch-target
// instruction index rather than a plain integer. Switch is not here; its
// targets travel in the dedicated switch operand.
var branchOpCodes = map[string]bool{
	"br": true, "br.s": true,
	"brfalse": true, "brfalse.s": true,
	"brtrue": true, "brtrue.s": true,
	"beq": true, "beq.s": true,
	"bge": true, "bge.s": true,
	"bge.un": true, "bge.un.s": true,
	"bgt": true, "bgt.s": true,
	"bgt.un": true, "bgt.un.s": true,
	"ble": true, "ble.s": true,
	"ble.un": true, "ble.un.s": true,
	"blt": true, "blt.s": true,
	"blt.un": true, "blt.un.s": true,
	"bne.un": true, "bne.un.s": true,
	"leave": true, "leave.s": true,
}

func isBranch(opcode string) bool {
	return branchOpCodes[opcode]
}
