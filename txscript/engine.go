package txscript

import (
	"bytes"

	"github.com/jrick/bitset"
)

// maxCondDepth bounds conditional nesting: it can never exceed the total
// operation count limit, since each level of nesting consumes at least one
// IF/NOTIF opcode.
const maxCondDepth = MaxOpsPerScript

// Engine executes a single script against a starting stack (for a
// combined script_sig ‖ script_pubkey evaluation the caller pushes the
// script_sig items first, then runs script_pubkey against the resulting
// stack).
type Engine struct {
	stack     [][]byte
	condStack bitset.Bytes // condStack[d] bit set = currently-executing branch at depth d was taken
	condDepth int
	opCount   int
	gasUsed   uint64
	sigParams *CheckSigParams
}

// NewEngine returns a fresh Engine with an empty stack.
func NewEngine() *Engine {
	return &Engine{condStack: bitset.NewBytes(maxCondDepth)}
}

// Push seeds the engine's stack before executing a script, used to carry
// script_sig results into the script_pubkey evaluation.
func (e *Engine) Push(item []byte) {
	e.stack = append(e.stack, item)
}

// Stack returns the current data stack, top element last.
func (e *Engine) Stack() [][]byte {
	return e.stack
}

// executing reports whether the interpreter is inside only taken
// conditional branches, i.e. whether opcodes should have effect.
func (e *Engine) executing() bool {
	for d := 0; d < e.condDepth; d++ {
		if !e.condStack.Get(d) {
			return false
		}
	}
	return true
}

// Execute runs script against the engine's current stack. It returns nil
// if the script completed with a truthy top stack item (spec.md §4.3); any
// non-nil error is a typed *Error.
func (e *Engine) Execute(script []byte) error {
	if len(script) > MaxScriptSize {
		return errKind(ErrKindScriptTooLarge, "script exceeds MAX_SCRIPT_SIZE")
	}

	pc := 0
	for pc < len(script) {
		op := Opcode(script[pc])
		pc++

		if _, disabled := disabledOpcodes[op]; disabled {
			return errKind(ErrKindDisabledOpcode, "disabled opcode encountered")
		}

		e.opCount++
		if e.opCount > MaxOpsPerScript {
			return errKind(ErrKindTooManyOps, "script exceeds MAX_OPS_PER_SCRIPT")
		}

		e.gasUsed += gasCost(op)
		if e.gasUsed > MaxScriptGas {
			return errGasExhausted(e.gasUsed, MaxScriptGas)
		}

		switch {
		case op == OP_0:
			if e.executing() {
				e.push(nil)
			}
		case isPushOpcode(op):
			n := int(op)
			if pc+n > len(script) {
				return errKind(ErrKindInvalidScript, "push opcode truncated")
			}
			if e.executing() {
				if err := e.pushChecked(script[pc : pc+n]); err != nil {
					return err
				}
			}
			pc += n
		case op == OP_PUSHDATA1, op == OP_PUSHDATA2, op == OP_PUSHDATA4:
			data, newPC, err := readPushData(script, pc, op)
			if err != nil {
				return err
			}
			pc = newPC
			if e.executing() {
				if err := e.pushChecked(data); err != nil {
					return err
				}
			}
		case op == OP_1NEGATE:
			if e.executing() {
				if err := e.pushChecked([]byte{0x81}); err != nil {
					return err
				}
			}
		case op >= OP_1 && op <= OP_16:
			if e.executing() {
				if err := e.pushChecked([]byte{byte(op) - byte(OP_1) + 1}); err != nil {
					return err
				}
			}
		case op == OP_IF, op == OP_NOTIF:
			if err := e.execConditional(op); err != nil {
				return err
			}
		case op == OP_ELSE:
			if err := e.execElse(); err != nil {
				return err
			}
		case op == OP_ENDIF:
			if err := e.execEndif(); err != nil {
				return err
			}
		case !e.executing():
			// Suppressed: everything else is a no-op while any enclosing
			// conditional branch is false.
		case op == OP_NOP:
			// no-op
		case op == OP_VERIFY:
			top, err := e.pop()
			if err != nil {
				return err
			}
			if !isTruthy(top) {
				return errKind(ErrKindVerifyFailed, "OP_VERIFY failed")
			}
		case op == OP_RETURN:
			return errKind(ErrKindEarlyReturn, "OP_RETURN")
		case op == OP_DUP:
			top, err := e.peek()
			if err != nil {
				return err
			}
			if err := e.pushChecked(append([]byte{}, top...)); err != nil {
				return err
			}
		case op == OP_SWAP:
			if len(e.stack) < 2 {
				return errKind(ErrKindStackUnderflow, "OP_SWAP needs 2 items")
			}
			n := len(e.stack)
			e.stack[n-1], e.stack[n-2] = e.stack[n-2], e.stack[n-1]
		case op == OP_EQUAL:
			a, err := e.pop()
			if err != nil {
				return err
			}
			b, err := e.pop()
			if err != nil {
				return err
			}
			if bytes.Equal(a, b) {
				e.push([]byte{1})
			} else {
				e.push(nil)
			}
		case op == OP_EQUALVERIFY:
			a, err := e.pop()
			if err != nil {
				return err
			}
			b, err := e.pop()
			if err != nil {
				return err
			}
			if !bytes.Equal(a, b) {
				return errKind(ErrKindVerifyFailed, "OP_EQUALVERIFY failed")
			}
		case op == OP_HASH160:
			top, err := e.pop()
			if err != nil {
				return err
			}
			if err := e.pushChecked(hash160(top)); err != nil {
				return err
			}
		case op == OP_HASH256:
			top, err := e.pop()
			if err != nil {
				return err
			}
			if err := e.pushChecked(hash256(top)); err != nil {
				return err
			}
		case op == OP_CHECKSIG:
			if err := e.execCheckSig(); err != nil {
				return err
			}
		default:
			return errKind(ErrKindInvalidScript, "unrecognized opcode")
		}
	}

	if e.condDepth != 0 {
		return errKind(ErrKindUnbalancedConditional, "unbalanced IF/ENDIF")
	}
	return nil
}

// Success reports whether the script, having executed without error,
// leaves a truthy top stack item (spec.md §4.3).
func (e *Engine) Success() error {
	if len(e.stack) == 0 {
		return errKind(ErrKindStackUnderflow, "empty stack at end of script")
	}
	top := e.stack[len(e.stack)-1]
	if !isTruthy(top) {
		return errKind(ErrKindVerifyFailed, "top stack item is false")
	}
	return nil
}

func (e *Engine) push(item []byte) {
	e.stack = append(e.stack, item)
}

func (e *Engine) pushChecked(item []byte) error {
	if len(item) > MaxElementSize {
		return errKind(ErrKindElementTooLarge, "stack element exceeds MAX_ELEMENT_SIZE")
	}
	if len(e.stack) >= MaxStackSize {
		return errKind(ErrKindStackOverflow, "stack exceeds MAX_STACK_SIZE")
	}
	e.stack = append(e.stack, item)
	return nil
}

func (e *Engine) pop() ([]byte, error) {
	if len(e.stack) == 0 {
		return nil, errKind(ErrKindStackUnderflow, "pop from empty stack")
	}
	top := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	return top, nil
}

func (e *Engine) peek() ([]byte, error) {
	if len(e.stack) == 0 {
		return nil, errKind(ErrKindStackUnderflow, "peek on empty stack")
	}
	return e.stack[len(e.stack)-1], nil
}

func (e *Engine) execConditional(op Opcode) error {
	var branchTrue bool
	if e.executing() {
		top, err := e.pop()
		if err != nil {
			return err
		}
		branchTrue = isTruthy(top)
		if op == OP_NOTIF {
			branchTrue = !branchTrue
		}
	}
	if e.condDepth >= maxCondDepth {
		return errKind(ErrKindUnbalancedConditional, "conditional nesting too deep")
	}
	if branchTrue {
		e.condStack.Set(e.condDepth)
	} else {
		e.condStack.Unset(e.condDepth)
	}
	e.condDepth++
	return nil
}

func (e *Engine) execElse() error {
	if e.condDepth == 0 {
		return errKind(ErrKindUnbalancedConditional, "ELSE without IF")
	}
	d := e.condDepth - 1
	if e.condStack.Get(d) {
		e.condStack.Unset(d)
	} else {
		e.condStack.Set(d)
	}
	return nil
}

func (e *Engine) execEndif() error {
	if e.condDepth == 0 {
		return errKind(ErrKindUnbalancedConditional, "ENDIF without IF")
	}
	e.condDepth--
	return nil
}

// readPushData parses the length-prefixed PUSHDATA1/2/4 operand, returning
// the pushed bytes and the program counter just past them.
func readPushData(script []byte, pc int, op Opcode) ([]byte, int, error) {
	var lenBytes int
	switch op {
	case OP_PUSHDATA1:
		lenBytes = 1
	case OP_PUSHDATA2:
		lenBytes = 2
	case OP_PUSHDATA4:
		lenBytes = 4
	}
	if pc+lenBytes > len(script) {
		return nil, 0, errKind(ErrKindInvalidScript, "truncated PUSHDATA length")
	}
	var n int
	for i := 0; i < lenBytes; i++ {
		n |= int(script[pc+i]) << (8 * i)
	}
	pc += lenBytes
	if pc+n > len(script) {
		return nil, 0, errKind(ErrKindInvalidScript, "truncated PUSHDATA payload")
	}
	return script[pc : pc+n], pc + n, nil
}

// isTruthy implements spec.md §4.3's success rule: any non-zero byte is
// true, except that a last byte of 0x80 with only zero bytes before it
// (negative zero, of any length) is false.
func isTruthy(item []byte) bool {
	if len(item) == 0 {
		return false
	}
	for i, b := range item {
		if b == 0 {
			continue
		}
		if i == len(item)-1 && b == 0x80 {
			return false
		}
		return true
	}
	return false
}
