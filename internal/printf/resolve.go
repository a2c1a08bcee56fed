package printf

// Resolve maps a type character and size prefix to its wire type. On failure
// it returns the rejection reason; verbs outside the type set report
// "Invalid type specifier".
func Resolve(verb byte, size Size) (WireType, string, bool) {
	switch familyOf(verb) {
	case FamilySigned:
		switch size {
		case SizeNone:
			return I32, "", true
		case SizeShort:
			return WireInvalid, "short int is unimplemented", false
		case SizeLong:
			return WireInvalid, "long int is not supported", false
		case SizeLongLong:
			return I64, "", true
		}
	case FamilyUnsigned:
		switch size {
		case SizeNone:
			return U32, "", true
		case SizeShort:
			return U16, "", true
		case SizeLong:
			return WireInvalid, "long unsigned int is unimplemented", false
		case SizeLongLong:
			return U64, "", true
		}
	case FamilyFloat:
		if size == SizeNone {
			return F64, "", true
		}
		return WireInvalid, "Size specifiers are not allowed for floating-point arguments", false
	case FamilyChar:
		if size == SizeNone {
			return U32, "", true
		}
		return WireInvalid, "Size specifiers are not allowed for char arguments", false
	case FamilyStr:
		if size == SizeNone {
			return StrPtr, "", true
		}
		return WireInvalid, "Size specifiers are not allowed for str arguments", false
	case FamilyPointer:
		if size == SizeNone {
			return VoidPtr, "", true
		}
		return WireInvalid, "Size specifiers are not allowed for pointer arguments", false
	}
	return WireInvalid, msgInvalidType, false
}
