// Package ar defines the relational algebra tree produced by the converter
// and its canonical text rendering.
//
// The tree has no subqueries, wildcards, BETWEEN or IN lists. Node sets are
// closed:
//   - Rel: Base, Rename, Project, Select, Product, Join, NaturalJoin,
//     Union, Intersect, Except
//   - Expr: Col, Const, Arith
//   - Pred: And, Or, Not, Cmp
//
// TRUE and FALSE are not node kinds. They are the comparisons 1 = 1 and
// 1 = 0, built by True and False and recognized by IsTrue and IsFalse.
package ar
