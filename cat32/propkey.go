package cat32

import "strings"

// PropertyKeyOf returns the text v coerces to when used as a property name:
//
//	string      escaped text
//	number      Number#toString form
//	bigint      decimal digits
//	boolean     true / false
//	symbol      registry sentinel when registered, Symbol(desc) otherwise
//	date        __date__:<iso> or __date__:invalid
//	array       element keys joined by "," (holes, null, undefined empty)
//	objects     [object Object], [object Map], [object Set], [object <Buffer>]
//
// Symbols resolve through the default registry.
func PropertyKeyOf(v *Value) string {
	return propertyKey(DefaultRegistry(), v, nil)
}

func propertyKey(reg *Registry, v *Value, seen map[*Value]struct{}) string {
	switch v.Kind() {
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	case KindBool:
		if v.boolVal {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.numVal)
	case KindBigInt:
		return v.bigVal.String()
	case KindStr:
		return Escape(v.strVal)
	case KindSymbol:
		if v.symVal.registered {
			return reg.SentinelFor(v.symVal)
		}
		return v.symVal.String()
	case KindFunc:
		return v.strVal
	case KindDate:
		return dateSentinel(v)
	case KindRegExp:
		return "/" + v.reVal.source + "/" + v.reVal.flags
	case KindArray:
		return arrayKey(reg, v, seen)
	case KindMap:
		return "[object Map]"
	case KindSet:
		return "[object Set]"
	case KindBuffer:
		return "[object " + v.bufVal.tag() + "]"
	default:
		return "[object Object]"
	}
}

// arrayKey joins element keys the way Array.prototype.join does. An array
// reached again through itself contributes an empty string.
func arrayKey(reg *Registry, v *Value, seen map[*Value]struct{}) string {
	if _, ok := seen[v]; ok {
		return ""
	}
	if seen == nil {
		seen = make(map[*Value]struct{})
	}
	seen[v] = struct{}{}
	defer delete(seen, v)

	var b strings.Builder
	for i, item := range v.items {
		if i > 0 {
			b.WriteByte(',')
		}
		switch item.Kind() {
		case KindNull, KindUndefined:
			continue
		}
		b.WriteString(propertyKey(reg, item, seen))
	}
	return b.String()
}

// coercionSafe reports whether two keys of this kind with the same property
// key are interchangeable for grouping.
func coercionSafe(v *Value) bool {
	switch v.Kind() {
	case KindStr, KindNumber, KindBigInt, KindBool, KindDate:
		return true
	case KindSymbol:
		return v.symVal.registered
	default:
		return false
	}
}
