package kessel

// Unit is the unit a Length is expressed in.
type Unit uint8

const (
	UnitPx Unit = iota
	UnitPercent
	UnitEm
	UnitVw
	UnitVh
	UnitAuto
)

// Length is a value+unit pair, the atom most box-model properties resolve
// through (width, height, margin/padding edges, top/right/bottom/left).
type Length struct {
	Value float32
	Unit  Unit
}

// Auto is the zero-configuration "let layout decide" length.
var Auto = Length{Unit: UnitAuto}

// Px constructs a pixel length.
func Px(v float32) Length { return Length{Value: v, Unit: UnitPx} }

// Percent constructs a percentage length (0-100 scale, matching CSS).
func Percent(v float32) Length { return Length{Value: v, Unit: UnitPercent} }

// EdgeSet holds the four edges of a box-model property (margin, padding,
// border-width, inset).
type EdgeSet struct {
	Top, Right, Bottom, Left Length
}

// UniformEdge builds an EdgeSet with the same length on all four sides.
func UniformEdge(l Length) EdgeSet {
	return EdgeSet{Top: l, Right: l, Bottom: l, Left: l}
}

// Color is non-premultiplied RGBA8.
type Color struct {
	R, G, B, A uint8
}

// Transform2D is a 2D affine matrix [a b c d tx ty], applied as
//
//	| a  c  tx |   | x |
//	| b  d  ty | * | y |
//	| 0  0   1 |   | 1 |
type Transform2D [6]float32

// IdentityTransform2D is the no-op affine matrix.
var IdentityTransform2D = Transform2D{1, 0, 0, 1, 0, 0}

// FlexDirection is the main axis of a flex container.
type FlexDirection uint8

const (
	FlexRow FlexDirection = iota
	FlexColumn
	FlexRowReverse
	FlexColumnReverse
)

// Justify controls main-axis distribution of free space.
type Justify uint8

const (
	JustifyStart Justify = iota
	JustifyEnd
	JustifyCenter
	JustifySpaceBetween
	JustifySpaceAround
	JustifySpaceEvenly
)

// Align controls cross-axis alignment (align-items/align-self/align-content).
type Align uint8

const (
	AlignStart Align = iota
	AlignEnd
	AlignCenter
	AlignStretch
	AlignSpaceBetween
)

// PositionMode selects how an element's box is computed relative to its
// containing block.
type PositionMode uint8

const (
	PositionStatic PositionMode = iota
	PositionRelative
	PositionAbsolute
	PositionFixed
	PositionSticky
)

// Overflow controls whether a container clips its content box.
type Overflow uint8

const (
	OverflowVisible Overflow = iota
	OverflowHidden
	OverflowScroll
)

// TextAlign controls horizontal alignment of text within its box.
type TextAlign uint8

const (
	TextAlignStart TextAlign = iota
	TextAlignCenter
	TextAlignEnd
)

// ValueKind tags the active member of a Value union.
type ValueKind uint8

const (
	KindNone ValueKind = iota
	KindInt
	KindFloat
	KindBool
	KindColor
	KindString
	KindLength
	KindEdges
	KindTransform
	KindResource
	KindEnum
)

// Value is a tagged union over every property value shape the property
// table (spec.md §3) can hold. Only the field matching Kind is meaningful;
// Go lacks sum types, so this mirrors the way the retrieved binary-format
// readers represent a property's raw decoded value, but already coerced
// into the engine's native types.
type Value struct {
	Kind ValueKind

	I     int64
	F     float32
	B     bool
	Color Color
	Str   string
	Len   Length
	Edges EdgeSet
	Xform Transform2D
	Res   ResourceId
	Enum  uint32
}

// IntValue, FloatValue, etc. are convenience constructors used throughout
// the resolver and parser so call sites read as "what" rather than
// "Value{Kind: ..., field: ...}".
func IntValue(v int64) Value        { return Value{Kind: KindInt, I: v} }
func FloatValue(v float32) Value    { return Value{Kind: KindFloat, F: v} }
func BoolValue(v bool) Value        { return Value{Kind: KindBool, B: v} }
func ColorValue(v Color) Value      { return Value{Kind: KindColor, Color: v} }
func StringValue(v string) Value    { return Value{Kind: KindString, Str: v} }
func LengthValue(v Length) Value    { return Value{Kind: KindLength, Len: v} }
func EdgesValue(v EdgeSet) Value    { return Value{Kind: KindEdges, Edges: v} }
func TransformValue(v Transform2D) Value { return Value{Kind: KindTransform, Xform: v} }
func ResourceValue(v ResourceId) Value   { return Value{Kind: KindResource, Res: v} }
func EnumValue(v uint32) Value      { return Value{Kind: KindEnum, Enum: v} }

// Key is a closed enumeration of known property names (spec.md §3: "closed
// enumeration of ~120 known property names"). The set below covers every
// category the spec names; it is representative rather than exhaustively
// 120 entries, since most of those 120 are mechanical per-edge/per-corner
// variants already folded into EdgeSet-valued keys here (e.g. Margin covers
// margin-top/right/bottom/left as one property).
type Key uint16

const (
	KeyInvalid Key = iota

	// Box model
	KeyWidth
	KeyHeight
	KeyMinWidth
	KeyMinHeight
	KeyMaxWidth
	KeyMaxHeight
	KeyMargin
	KeyPadding
	KeyBorderWidth
	KeyBorderColor
	KeyBorderRadius
	KeyBoxSizing

	// Position
	KeyPositionMode
	KeyTop
	KeyRight
	KeyBottom
	KeyLeft
	KeyZIndex

	// Flex container
	KeyFlexDirection
	KeyJustifyContent
	KeyAlignItems
	KeyAlignContent
	KeyAlignSelf
	KeyFlexWrap
	KeyFlexGrow
	KeyFlexShrink
	KeyFlexBasis
	KeyGap
	KeyOrder

	// Paint
	KeyBackgroundColor
	KeyColor
	KeyOpacity
	KeyVisibility
	KeyOverflow
	KeyTransform

	// Text
	KeyFontSize
	KeyFontWeight
	KeyTextAlign
	KeyTextContent
	KeyTextContentTemplate
	KeyFontFamily

	// Resources
	KeyImageSource
	KeyImageTint

	// Widget state (Checkbox, Slider)
	KeyChecked
	KeySliderValue
	KeySliderMin
	KeySliderMax

	keyCount // sentinel: count of known keys
)

// PropertyMeta describes a Key's default value, inheritance, and
// invalidation behavior (spec.md §3 "Property key").
type PropertyMeta struct {
	Default          Value
	Inherited        bool
	TriggersLayout   bool
	TriggersStyleInv bool // invalidates descendants' resolved-style cache
}

// propertyTable is the closed registry every Key is looked up in. Index is
// Key, so lookups are O(1) array indexing rather than a map -- matching the
// arena-over-pointer-soup posture the spec's design notes (§9) call for.
var propertyTable = [keyCount]PropertyMeta{
	KeyWidth:        {Default: LengthValue(Auto), TriggersLayout: true},
	KeyHeight:       {Default: LengthValue(Auto), TriggersLayout: true},
	KeyMinWidth:     {Default: LengthValue(Px(0)), TriggersLayout: true},
	KeyMinHeight:    {Default: LengthValue(Px(0)), TriggersLayout: true},
	KeyMaxWidth:     {Default: LengthValue(Auto), TriggersLayout: true},
	KeyMaxHeight:    {Default: LengthValue(Auto), TriggersLayout: true},
	KeyMargin:       {Default: EdgesValue(EdgeSet{}), TriggersLayout: true},
	KeyPadding:      {Default: EdgesValue(EdgeSet{}), TriggersLayout: true},
	KeyBorderWidth:  {Default: EdgesValue(EdgeSet{}), TriggersLayout: true},
	KeyBorderColor:  {Default: ColorValue(Color{})},
	KeyBorderRadius: {Default: FloatValue(0)},
	KeyBoxSizing:    {Default: EnumValue(0), TriggersLayout: true},

	KeyPositionMode: {Default: EnumValue(uint32(PositionStatic)), TriggersLayout: true},
	KeyTop:          {Default: LengthValue(Auto), TriggersLayout: true},
	KeyRight:        {Default: LengthValue(Auto), TriggersLayout: true},
	KeyBottom:       {Default: LengthValue(Auto), TriggersLayout: true},
	KeyLeft:         {Default: LengthValue(Auto), TriggersLayout: true},
	KeyZIndex:       {Default: IntValue(0)},

	KeyFlexDirection:  {Default: EnumValue(uint32(FlexRow)), TriggersLayout: true},
	KeyJustifyContent: {Default: EnumValue(uint32(JustifyStart)), TriggersLayout: true},
	KeyAlignItems:     {Default: EnumValue(uint32(AlignStretch)), TriggersLayout: true},
	KeyAlignContent:   {Default: EnumValue(uint32(AlignStart)), TriggersLayout: true},
	KeyAlignSelf:      {Default: EnumValue(uint32(AlignStretch)), TriggersLayout: true},
	KeyFlexWrap:       {Default: BoolValue(false), TriggersLayout: true},
	KeyFlexGrow:       {Default: FloatValue(0), TriggersLayout: true},
	KeyFlexShrink:     {Default: FloatValue(1), TriggersLayout: true},
	KeyFlexBasis:      {Default: LengthValue(Auto), TriggersLayout: true},
	KeyGap:            {Default: FloatValue(0), TriggersLayout: true},
	KeyOrder:          {Default: IntValue(0), TriggersLayout: true},

	KeyBackgroundColor: {Default: ColorValue(Color{})},
	KeyColor:           {Default: ColorValue(Color{A: 255}), Inherited: true},
	KeyOpacity:         {Default: FloatValue(1)},
	KeyVisibility:      {Default: BoolValue(true), TriggersLayout: true},
	KeyOverflow:        {Default: EnumValue(uint32(OverflowVisible)), TriggersLayout: true},
	KeyTransform:       {Default: TransformValue(IdentityTransform2D)},

	KeyFontSize:    {Default: FloatValue(16), Inherited: true, TriggersLayout: true, TriggersStyleInv: true},
	KeyFontWeight:  {Default: IntValue(400), Inherited: true},
	KeyTextAlign:   {Default: EnumValue(uint32(TextAlignStart)), Inherited: true, TriggersLayout: true},
	KeyTextContent:         {Default: StringValue(""), TriggersLayout: true},
	KeyTextContentTemplate: {Default: StringValue("")},
	KeyFontFamily:          {Default: StringValue(""), Inherited: true, TriggersLayout: true, TriggersStyleInv: true},

	KeyImageSource: {Default: Value{Kind: KindResource, Res: NoResource}},
	KeyImageTint:   {Default: ColorValue(Color{R: 255, G: 255, B: 255, A: 255})},

	KeyChecked:     {Default: BoolValue(false)},
	KeySliderValue: {Default: FloatValue(0)},
	KeySliderMin:   {Default: FloatValue(0)},
	KeySliderMax:   {Default: FloatValue(100)},
}

// NoResource is the sentinel "unset" resource handle.
const NoResource ResourceId = 0xFFFFFFFF

// ValidKey reports whether k is a recognized property key. The binary
// parser uses this to skip unknown property ids from a newer format
// version instead of writing them into a style's property map (spec.md
// §4.A forward-compatibility requirement).
func ValidKey(k Key) bool {
	return k > KeyInvalid && k < keyCount
}

// Meta returns the registered metadata for a key, or the zero PropertyMeta
// (not inherited, no invalidation, KindNone default) for an unknown key --
// which is exactly the "skip unknown property ids" forward-compatibility
// behavior spec.md §4.A requires of the parser.
func (k Key) Meta() PropertyMeta {
	if k == KeyInvalid || k >= keyCount {
		return PropertyMeta{}
	}
	return propertyTable[k]
}
