// Package builder provides fluent construction of workflow and step
// definitions. Builders are immutable; every With* call returns a copy,
// so partial templates can be shared and specialized safely
package builder
