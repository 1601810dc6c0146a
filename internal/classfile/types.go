// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package classfile reads the parts of JVM class files the decompile
// pipeline needs: declarations, signatures, line number tables and local
// variable tables. Method bodies are kept as raw bytes.
package classfile

// Access flags.
const (
	AccPublic       = 0x0001
	AccPrivate      = 0x0002
	AccProtected    = 0x0004
	AccStatic       = 0x0008
	AccFinal        = 0x0010
	AccSuper        = 0x0020
	AccSynchronized = 0x0020
	AccVolatile     = 0x0040
	AccBridge       = 0x0040
	AccTransient    = 0x0080
	AccVarargs      = 0x0080
	AccNative       = 0x0100
	AccInterface    = 0x0200
	AccAbstract     = 0x0400
	AccStrict       = 0x0800
	AccSynthetic    = 0x1000
	AccAnnotation   = 0x2000
	AccEnum         = 0x4000
	AccModule       = 0x8000
)

// Magic is the first word of every class file.
const Magic = 0xCAFEBABE

// Supported major versions (Java 1.1 through Java 25).
const (
	MinMajorVersion = 45
	MaxMajorVersion = 69
)

// Constant pool tags.
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
	TagModule             = 19
	TagPackage            = 20
)

// ClassFile is a parsed class file with constant pool references resolved.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	AccessFlags  uint16
	ThisClass    string
	SuperClass   string // empty for java/lang/Object and module-info
	Interfaces   []string
	Fields       []Field
	Methods      []Method
	SourceFile   string
	Signature    string
	InnerClasses []InnerClass
}

// Field is one field_info.
type Field struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Signature   string
}

// Method is one method_info.
type Method struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Signature   string
	Exceptions  []string
	Code        *Code
}

// Code is the subset of the Code attribute used for correlation.
type Code struct {
	MaxStack    uint16
	MaxLocals   uint16
	Bytecode    []byte
	LineNumbers []LineNumber
	LocalVars   []LocalVar
}

// LineNumber maps a bytecode offset to a source line.
type LineNumber struct {
	StartPC uint16
	Line    uint16
}

// LocalVar is one LocalVariableTable row.
type LocalVar struct {
	StartPC    uint16
	Length     uint16
	Name       string
	Descriptor string
	Index      uint16
}

// InnerClass is one InnerClasses attribute row. Outer and Name are empty
// for anonymous and local classes.
type InnerClass struct {
	Inner       string
	Outer       string
	Name        string
	AccessFlags uint16
}

// Is reports whether every bit of flag is set on c.
func (c *ClassFile) Is(flag uint16) bool { return c.AccessFlags&flag == flag }

// Is reports whether every bit of flag is set on f.
func (f *Field) Is(flag uint16) bool { return f.AccessFlags&flag == flag }

// Is reports whether every bit of flag is set on m.
func (m *Method) Is(flag uint16) bool { return m.AccessFlags&flag == flag }

// FirstLine returns the lowest source line recorded for the method, or 0.
func (m *Method) FirstLine() int {
	if m.Code == nil {
		return 0
	}
	first := 0
	for _, ln := range m.Code.LineNumbers {
		if first == 0 || int(ln.Line) < first {
			first = int(ln.Line)
		}
	}
	return first
}

// LastLine returns the highest source line recorded for the method, or 0.
func (m *Method) LastLine() int {
	if m.Code == nil {
		return 0
	}
	last := 0
	for _, ln := range m.Code.LineNumbers {
		if int(ln.Line) > last {
			last = int(ln.Line)
		}
	}
	return last
}

// LocalName returns the LocalVariableTable name of slot index, if recorded.
func (m *Method) LocalName(index int) (string, bool) {
	if m.Code == nil {
		return "", false
	}
	for _, lv := range m.Code.LocalVars {
		if int(lv.Index) == index && lv.StartPC == 0 {
			return lv.Name, true
		}
	}
	return "", false
}
