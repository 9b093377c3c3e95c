package r3d

import (
	"github.com/pkg/errors"

	"github.com/mogaika/model_viewer/math3d"
)

// TRS is a transform kept decomposed so that sliders and animation can
// edit one component without disturbing the others.
type TRS struct {
	Translation math3d.Vector3
	Rotation    math3d.Quat
	Scale       math3d.Vector3
}

func IdentityTRS() TRS {
	return TRS{
		Rotation: math3d.QuatIdentity,
		Scale:    math3d.Vector3One,
	}
}

// Transform recomposes translate * rotate * scale.
func (t *TRS) Transform() math3d.Transform {
	return math3d.TransformFromTRS(t.Translation, t.Rotation, t.Scale)
}

// SetTransform decomposes tr. Shear is lost. On error t is unchanged.
func (t *TRS) SetTransform(tr math3d.Transform) error {
	translation, rotation, scale, err := tr.Decompose()
	if err != nil {
		return errors.Wrapf(err, "set transform")
	}
	t.Translation, t.Rotation, t.Scale = translation, rotation, scale
	return nil
}

// Node is an element of the scene tree. A node owns its children; the
// parent pointer is only used for lookups. A node with meshes acts as a
// mesh instance and draws them at its own world transform.
type Node struct {
	TRS
	Name   string
	Meshes []*Mesh

	parent   *Node
	children []*Node
}

func NewNode(name string) *Node {
	return &Node{
		TRS:  IdentityTRS(),
		Name: name,
	}
}

func NewMeshInstance(name string, meshes ...*Mesh) *Node {
	n := NewNode(name)
	n.Meshes = meshes
	return n
}

func (n *Node) IsMeshInstance() bool { return len(n.Meshes) != 0 }

func (n *Node) Parent() *Node { return n.parent }

func (n *Node) ChildrenLength() int { return len(n.children) }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

func (n *Node) Child(i int) (*Node, error) {
	if i < 0 || i >= len(n.children) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "child %d of %q (%d children)", i, n.Name, len(n.children))
	}
	return n.children[i], nil
}

// Index returns the position of n among its siblings, -1 for a root. It is
// also -1 when the parent does not list n, a link AddNode and RemoveNode
// never leave behind.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// AddNode appends an unattached node and returns the new children count.
func (n *Node) AddNode(child *Node) (int, error) {
	if child.parent != nil {
		return 0, errors.Wrapf(ErrAlreadyAttached, "add %q to %q", child.Name, n.Name)
	}
	for p := n; p != nil; p = p.parent {
		if p == child {
			return 0, errors.Wrapf(ErrCycle, "add %q to %q", child.Name, n.Name)
		}
	}

	child.parent = n
	n.children = append(n.children, child)
	return len(n.children), nil
}

// RemoveNode detaches the child at i; later siblings move down by one.
func (n *Node) RemoveNode(i int) (*Node, error) {
	child, err := n.Child(i)
	if err != nil {
		return nil, err
	}

	copy(n.children[i:], n.children[i+1:])
	n.children[len(n.children)-1] = nil
	n.children = n.children[:len(n.children)-1]
	child.parent = nil
	return child, nil
}

// Detach removes n from its parent, if any.
func (n *Node) Detach() error {
	if n.parent == nil {
		return nil
	}
	_, err := n.parent.RemoveNode(n.Index())
	return errors.Wrapf(err, "detach %q from %q", n.Name, n.parent.Name)
}

// WorldTransform composes the local transforms from the root down to n.
func (n *Node) WorldTransform() math3d.Transform {
	t := n.Transform()
	for p := n.parent; p != nil; p = p.parent {
		t = p.Transform().Mul(t)
	}
	return t
}

// Render composes n into world, draws its meshes with the result and then
// visits the children in insertion order with the same composed transform.
func (n *Node) Render(world math3d.Transform, viewProjection math3d.Projection, cameraPosition math3d.Vector3) error {
	world = world.Mul(n.Transform())

	for i, mesh := range n.Meshes {
		if err := mesh.Render(world, viewProjection, cameraPosition); err != nil {
			return errors.Wrapf(err, "node %q mesh %d", n.Name, i)
		}
	}
	for _, child := range n.children {
		if err := child.Render(world, viewProjection, cameraPosition); err != nil {
			return err
		}
	}
	return nil
}

// Walk visits the subtree depth first, parent before children, passing the
// world transform of every node relative to the subtree root's parent.
func (n *Node) Walk(fn func(node *Node, world math3d.Transform) error) error {
	return n.walk(math3d.TransformIdentity, fn)
}

func (n *Node) walk(world math3d.Transform, fn func(*Node, math3d.Transform) error) error {
	world = world.Mul(n.Transform())
	if err := fn(n, world); err != nil {
		return err
	}
	for _, child := range n.children {
		if err := child.walk(world, fn); err != nil {
			return err
		}
	}
	return nil
}

// FindByName returns the first node in pre-order with the given name.
func (n *Node) FindByName(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, child := range n.children {
		if found := child.FindByName(name); found != nil {
			return found
		}
	}
	return nil
}

// Count returns the number of nodes in the subtree, n included.
func (n *Node) Count() int {
	count := 1
	for _, child := range n.children {
		count += child.Count()
	}
	return count
}

// At returns the node with pre-order index id inside the subtree, n being 0.
func (n *Node) At(id int) *Node {
	if id == 0 {
		return n
	}
	id--
	for _, child := range n.children {
		if found := child.At(id); found != nil {
			return found
		}
		id -= child.Count()
	}
	return nil
}
