package graph

import "sort"

// This file implements idealization: algebraic normalization of Add/Mul
// nodes at insertion time, so two expressions with the same mathematical
// value always hash-cons to the same node. Rather than a literal recursive
// decompose-fold-retry procedure, this is a flatten/regroup/sort/rebuild
// pipeline: flatten the chain into its full leaf-operand multiset, regroup
// (constant folding plus, for Add, combining same-base terms via a
// coefficient map), sort the remaining operands by the variable order, and
// rebuild a left-leaning chain with any folded constant at the tail. This
// is idempotent by construction: re-flattening an already-normalized chain
// and rebuilding it yields identical operands in identical order.

func (a *Arena) flattenInto(kind Kind, id NodeId, out *[]NodeId) {
	n := a.Get(id)
	if n.Kind == kind {
		a.flattenInto(kind, n.Left(), out)
		a.flattenInto(kind, n.Right(), out)
		return
	}
	*out = append(*out, id)
}

// idealizeAdd normalizes Add(l, r).
func (a *Arena) idealizeAdd(l, r NodeId) NodeId {
	var operands []NodeId
	a.flattenInto(KindAdd, l, &operands)
	a.flattenInto(KindAdd, r, &operands)
	return a.rebuildAdd(operands)
}

func (a *Arena) rebuildAdd(operands []NodeId) NodeId {
	var constSum byte
	coeff := make(map[NodeId]byte, len(operands))
	var order []NodeId // first-seen order of distinct bases, for a stable (pre-sort) coeff table

	addCoeff := func(base NodeId, c byte) {
		if _, ok := coeff[base]; !ok {
			order = append(order, base)
		}
		coeff[base] += c
	}

	for _, id := range operands {
		n := a.Get(id)
		switch {
		case n.Kind == KindConst:
			constSum += n.ConstValue()
		case n.Kind == KindMul && a.Get(n.Left()).Kind == KindConst:
			addCoeff(n.Right(), a.Get(n.Left()).ConstValue())
		case n.Kind == KindMul && a.Get(n.Right()).Kind == KindConst:
			addCoeff(n.Left(), a.Get(n.Right()).ConstValue())
		default:
			addCoeff(id, 1)
		}
	}

	terms := make([]NodeId, 0, len(order))
	for _, base := range order {
		c := coeff[base]
		if c == 0 {
			continue
		}
		if c == 1 {
			terms = append(terms, base)
		} else {
			terms = append(terms, a.insertRaw(mulNode(base, a.InsertConst(c))))
		}
	}
	sort.Slice(terms, func(i, j int) bool { return a.cmpVarOrder(terms[i], terms[j]) < 0 })

	if len(terms) == 0 {
		return a.InsertConst(constSum)
	}
	acc := terms[0]
	for _, t := range terms[1:] {
		acc = a.insertRaw(addNode(acc, t))
	}
	if constSum != 0 {
		acc = a.insertRaw(addNode(acc, a.InsertConst(constSum)))
	}
	return acc
}

// idealizeMul normalizes Mul(l, r).
func (a *Arena) idealizeMul(l, r NodeId) NodeId {
	var operands []NodeId
	a.flattenInto(KindMul, l, &operands)
	a.flattenInto(KindMul, r, &operands)
	return a.rebuildMul(operands)
}

func (a *Arena) rebuildMul(operands []NodeId) NodeId {
	constProd := byte(1)
	terms := make([]NodeId, 0, len(operands))
	for _, id := range operands {
		n := a.Get(id)
		if n.Kind == KindConst {
			if n.ConstValue() == 0 {
				return a.InsertConst(0)
			}
			constProd *= n.ConstValue()
			continue
		}
		terms = append(terms, id)
	}
	if len(terms) == 0 {
		return a.InsertConst(constProd)
	}
	sort.Slice(terms, func(i, j int) bool { return a.cmpVarOrder(terms[i], terms[j]) < 0 })

	acc := terms[0]
	for _, t := range terms[1:] {
		acc = a.insertRaw(mulNode(acc, t))
	}
	if constProd != 1 {
		acc = a.insertRaw(mulNode(acc, a.InsertConst(constProd)))
	}
	return acc
}
