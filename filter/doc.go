// Package filter narrows loaded items with expressions written in the expr
// language.
//
// Variables: ID, Name, Types, Abilities, Mass (hectograms), Size
// (decimetres), Weight (kg), Height (m), Stats (map of stat name to value),
// Total, HasImage, and Item for the whole record.
//
// Functions: hasType/hasCategory, hasAbility/hasTrait, stat(name), and the
// case-insensitive string helpers contains, startsWith, endsWith, lower,
// upper.
//
//	f, err := filter.NewExprCompiler().Compile(`hasType("fire") && stat("speed") >= 100`)
//	if err != nil {
//		return err
//	}
//	fast := filter.Apply(f, items)
package filter
