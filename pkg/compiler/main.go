// Package compiler lowers treadmill control statements into the label-addressed
// pseudo-assembly understood by the treadmill virtual machine.
//
// Pipeline: statement script → ParseScript → Generate → assembly text
//
// Values are fixed-point with one decimal digit (scale 10). R1 is the working
// register and R2 the scratch register; comparisons always test R1 against R2.
package compiler
