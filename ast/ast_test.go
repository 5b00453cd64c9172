package ast_test

import (
	"testing"

	"github.com/Flesymeb/rustlikec/ast"
)

func TestTyEqual_ScalarsAndComposites(t *testing.T) {
	cases := []struct {
		name string
		a, b ast.Ty
		want bool
	}{
		{"i32 == i32", ast.TyI32{}, ast.TyI32{}, true},
		{"i32 != bool", ast.TyI32{}, ast.TyBool{}, false},
		{"matching arrays", &ast.TyArray{Elem: ast.TyI32{}, Size: 3}, &ast.TyArray{Elem: ast.TyI32{}, Size: 3}, true},
		{"array size mismatch", &ast.TyArray{Elem: ast.TyI32{}, Size: 3}, &ast.TyArray{Elem: ast.TyI32{}, Size: 4}, false},
		{"matching tuples", &ast.TyTuple{Elems: []ast.Ty{ast.TyI32{}, ast.TyBool{}}}, &ast.TyTuple{Elems: []ast.Ty{ast.TyI32{}, ast.TyBool{}}}, true},
		{"tuple arity mismatch", &ast.TyTuple{Elems: []ast.Ty{ast.TyI32{}}}, &ast.TyTuple{Elems: []ast.Ty{ast.TyI32{}, ast.TyBool{}}}, false},
		{"matching refs", &ast.TyRef{Mutable: true, Elem: ast.TyI32{}}, &ast.TyRef{Mutable: true, Elem: ast.TyI32{}}, true},
		{"ref mutability mismatch", &ast.TyRef{Mutable: true, Elem: ast.TyI32{}}, &ast.TyRef{Mutable: false, Elem: ast.TyI32{}}, false},
	}
	for _, c := range cases {
		if got := ast.TyEqual(c.a, c.b); got != c.want {
			t.Errorf("%s: TyEqual = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestTyName_RendersDiagnosticStrings(t *testing.T) {
	cases := []struct {
		ty   ast.Ty
		want string
	}{
		{nil, "()"},
		{ast.TyI32{}, "i32"},
		{ast.TyBool{}, "bool"},
		{ast.TyUnit{}, "()"},
		{&ast.TyArray{Elem: ast.TyI32{}, Size: 5}, "[i32]"},
		{&ast.TyTuple{Elems: []ast.Ty{ast.TyI32{}, ast.TyBool{}}}, "(i32, bool)"},
		{&ast.TyRef{Mutable: false, Elem: ast.TyI32{}}, "&i32"},
		{&ast.TyRef{Mutable: true, Elem: ast.TyI32{}}, "&mut i32"},
	}
	for _, c := range cases {
		if got := ast.TyName(c.ty); got != c.want {
			t.Errorf("TyName(%#v) = %q, want %q", c.ty, got, c.want)
		}
	}
}
