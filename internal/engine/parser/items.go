package parser

// ItemKind classifies a syntactic item.
type ItemKind uint8

const (
	ItemMod ItemKind = iota
	ItemStruct
	ItemEnum
	ItemVariant
	ItemTrait
	ItemFn
	ItemTypeAlias
	ItemConst
	ItemStatic
	ItemImpl
	ItemMacro
	ItemUse
	ItemExternCrate
)

func (k ItemKind) String() string {
	switch k {
	case ItemMod:
		return "mod"
	case ItemStruct:
		return "struct"
	case ItemEnum:
		return "enum"
	case ItemVariant:
		return "variant"
	case ItemTrait:
		return "trait"
	case ItemFn:
		return "fn"
	case ItemTypeAlias:
		return "type"
	case ItemConst:
		return "const"
	case ItemStatic:
		return "static"
	case ItemImpl:
		return "impl"
	case ItemMacro:
		return "macro"
	case ItemUse:
		return "use"
	case ItemExternCrate:
		return "extern crate"
	default:
		return "invalid"
	}
}

type VisKind uint8

const (
	VisPrivate VisKind = iota
	VisPublic
	VisCrate
	VisSuper
	// VisRestricted is `pub(in path)`.
	VisRestricted
)

type Visibility struct {
	Kind VisKind
	In   *Path
}

// Shape is the constructor form of a struct or variant.
type Shape uint8

const (
	ShapeNamed Shape = iota
	ShapeTuple
	ShapeUnit
)

type ParamKind uint8

const (
	ParamType ParamKind = iota
	ParamLifetime
	ParamConst
)

type GenericParam struct {
	ID      NodeID
	Kind    ParamKind
	Name    string
	Default TypeRef
	// ConstType is the declared type of a const parameter.
	ConstType    TypeRef
	ConstDefault ConstExpr
	Bounds       []*Path
}

// WherePred is `Subject: Bound + Bound`.
type WherePred struct {
	Subject TypeRef
	Bounds  []*Path
}

type Generics struct {
	Params []GenericParam
	Where  []WherePred
}

type Field struct {
	Name string
	Type TypeRef
	Vis  Visibility
}

// UseItem is one flattened leaf of a use tree.
type UseItem struct {
	Path  *Path
	Alias string
	Glob  bool
}

// Item is a named (or, for impls and uses, anonymous) declaration site.
type Item struct {
	ID       NodeID
	Kind     ItemKind
	Name     string
	Vis      Visibility
	Generics *Generics
	// Items holds module, trait and impl members, enum variants and items
	// declared inside a function body.
	Items []*Item
	// Blocks are nested scopes of a function body carrying their own items.
	Blocks []*Block
	Fields []Field
	Shape  Shape
	// AliasType is the right-hand side of a type alias or the default of an
	// associated type; it is nil for a bare `type Item;`.
	AliasType   TypeRef
	AliasBounds []*Path
	ConstType   TypeRef
	ConstValue  ConstExpr
	SelfType    TypeRef
	Trait       *Path
	Negative    bool
	Supertraits []*Path
	Uses        []UseItem
	Inputs      []TypeRef
	Output      TypeRef
	// Foreign marks items of an `extern` block.
	Foreign bool
	// External marks `mod name;` whose body lives in another file.
	External bool
	Location Location
}

// Block is a lexical scope inside a function body.
type Block struct {
	ID     NodeID
	Items  []*Item
	Blocks []*Block
}

// File is the extraction result of one source file.
type File struct {
	Path string
	// Module is the node id the file's top-level items are owned by.
	Module     NodeID
	Items      []*Item
	References []*Path
	// Errors are syntax error positions; Unsupported are paths and types
	// whose form the model cannot express, such as `<T as Trait>::X`.
	Errors      []Location
	Unsupported []Location
}

// Crate is a parsed crate: a root module plus the references found in it.
type Crate struct {
	Name       string
	Edition    string
	Root       *Item
	References []*Path
}

// NewModule creates a module item with a fresh node id.
func NewModule(name string, vis Visibility, items ...*Item) *Item {
	return &Item{ID: NextNodeID(), Kind: ItemMod, Name: name, Vis: vis, Items: items}
}

// Walk visits it and every nested item and block item, depth first.
func Walk(it *Item, fn func(*Item)) {
	if it == nil {
		return
	}
	fn(it)
	for _, child := range it.Items {
		Walk(child, fn)
	}
	for _, b := range it.Blocks {
		walkBlock(b, fn)
	}
}

func walkBlock(b *Block, fn func(*Item)) {
	for _, it := range b.Items {
		Walk(it, fn)
	}
	for _, nested := range b.Blocks {
		walkBlock(nested, fn)
	}
}
