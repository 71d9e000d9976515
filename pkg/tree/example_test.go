package tree_test

import (
	"fmt"

	"github.com/matzehuels/famtree/pkg/errors"
	"github.com/matzehuels/famtree/pkg/tree"
)

func Example() {
	s := tree.New()
	grandma, _ := s.AddPerson(tree.Person{Name: "Hana", Gender: tree.GenderFemale})
	mother, _ := s.AddPerson(tree.Person{Name: "Yuki", Gender: tree.GenderFemale})
	child, _ := s.AddPerson(tree.Person{Name: "Ren"})

	_ = s.AddParentChild(grandma, mother, tree.KindBiological)
	_ = s.AddParentChild(mother, child, tree.KindBiological)

	err := s.AddParentChild(child, grandma, tree.KindBiological)
	fmt.Println(errors.GetCode(err))
	fmt.Println(s.Validator().IsAncestor(grandma, child))
	// Output:
	// STRUCTURAL_CYCLE
	// true
}

func ExampleStore_RemovePerson() {
	s := tree.New()
	a, _ := s.AddPerson(tree.Person{Name: "A"})
	b, _ := s.AddPerson(tree.Person{Name: "B"})
	c, _ := s.AddPerson(tree.Person{Name: "C"})
	_ = s.AddParentChild(a, b, tree.KindBiological)
	_ = s.AddSpouse(b, c, "")

	_ = s.RemovePerson(b)
	fmt.Println(len(s.ParentChildEdges()), len(s.SpouseEdges()), s.Len())
	// Output: 0 0 2
}
