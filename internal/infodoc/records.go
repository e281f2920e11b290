// Package infodoc reads and writes nexacro INFO metadata documents.
//
// An INFO document has a single Object element holding named sections
// (ObjectInfo, PropertyInfo, CSSInfo, StatusInfo, ControlInfo, MethodInfo,
// EventHandlerInfo). Every record is a typed struct whose known attributes
// are Opt fields; attributes the struct does not name are kept in Extra so
// nothing is lost on a round trip.
package infodoc

import "encoding/xml"

// Opt is an attribute value that remembers whether it was present.
type Opt struct {
	Value string
	Set   bool
}

// Some returns a present attribute.
func Some(v string) Opt { return Opt{Value: v, Set: true} }

// UnmarshalXMLAttr implements xml.UnmarshalerAttr.
func (o *Opt) UnmarshalXMLAttr(attr xml.Attr) error {
	o.Value = attr.Value
	o.Set = true
	return nil
}

// MarshalJSON renders absent values as null.
func (o Opt) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return jsonString(o.Value)
}

// MarshalYAML renders absent values as null.
func (o Opt) MarshalYAML() (interface{}, error) {
	if !o.Set {
		return nil, nil
	}
	return o.Value, nil
}

// String returns the value, empty when absent.
func (o Opt) String() string { return o.Value }

// ObjectInfo describes the component itself. The component id lives on the
// enclosing Object element and is kept in Document.ObjectID.
type ObjectInfo struct {
	FinalClass        Opt        `xml:"finalclass,attr"`
	Inheritance       Opt        `xml:"inheritance,attr"`
	ClassName         Opt        `xml:"classname,attr"`
	ShortTypeName     Opt        `xml:"shorttypename,attr"`
	CSSTypeName       Opt        `xml:"csstypename,attr"`
	CSSControlName    Opt        `xml:"csscontrolname,attr"`
	Group             Opt        `xml:"group,attr"`
	SubGroup          Opt        `xml:"subgroup,attr"`
	CSSPseudo         Opt        `xml:"csspseudo,attr"`
	Container         Opt        `xml:"container,attr"`
	Composite         Opt        `xml:"composite,attr"`
	TabStop           Opt        `xml:"tabstop,attr"`
	CSSStyle          Opt        `xml:"cssstyle,attr"`
	Contents          Opt        `xml:"contents,attr"`
	Formats           Opt        `xml:"formats,attr"`
	ContentsEditor    Opt        `xml:"contentseditor,attr"`
	DefaultWidth      Opt        `xml:"defaultwidth,attr"`
	DefaultHeight     Opt        `xml:"defaultheight,attr"`
	Registration      Opt        `xml:"registration,attr"`
	EditType          Opt        `xml:"edittype,attr"`
	UseInitValue      Opt        `xml:"useinitvalue,attr"`
	Popup             Opt        `xml:"popup,attr"`
	EditTypeComponent Opt        `xml:"edittypecomponent,attr"`
	DblClickEvent     Opt        `xml:"dblclickevent,attr"`
	Requirement       Opt        `xml:"requirement,attr"`
	Description       Opt        `xml:"description,attr"`
	Extra             []xml.Attr `xml:",any,attr"`
}

// PropertyRecord is one PropertyInfo > Property element.
type PropertyRecord struct {
	Name               Opt        `xml:"name,attr"`
	Group              Opt        `xml:"group,attr"`
	SubGroup           Opt        `xml:"subgroup,attr"`
	RefreshInfo        Opt        `xml:"refreshinfo,attr"`
	DisplayInfo        Opt        `xml:"displayinfo,attr"`
	EditType           Opt        `xml:"edittype,attr"`
	DefaultValue       Opt        `xml:"defaultvalue,attr"`
	ReadOnly           Opt        `xml:"readonly,attr"`
	InitOnly           Opt        `xml:"initonly,attr"`
	Hidden             Opt        `xml:"hidden,attr"`
	Control            Opt        `xml:"control,attr"`
	Expr               Opt        `xml:"expr,attr"`
	Bind               Opt        `xml:"bind,attr"`
	Deprecated         Opt        `xml:"deprecated,attr"`
	Unused             Opt        `xml:"unused,attr"`
	Mandatory          Opt        `xml:"mandatory,attr"`
	ObjectInfo         Opt        `xml:"objectinfo,attr"`
	EnumInfo           Opt        `xml:"enuminfo,attr"`
	EnumInfo2          Opt        `xml:"enuminfo2,attr"`
	UnitInfo           Opt        `xml:"unitinfo,attr"`
	Delimiter          Opt        `xml:"delimiter,attr"`
	Requirement        Opt        `xml:"requirement,attr"`
	Description        Opt        `xml:"description,attr"`
	CSSPropertyName    Opt        `xml:"csspropertyname,attr"`
	NormalPropertyName Opt        `xml:"normalpropertyname,attr"`
	StringRC           Opt        `xml:"stringrc,attr"`
	DefaultStringRC    Opt        `xml:"defaultstringrc,attr"`
	Extra              []xml.Attr `xml:",any,attr"`
}

// CSSRecord is one CSSInfo > PropertyInfo > Property element.
type CSSRecord struct {
	Name               Opt        `xml:"name,attr"`
	Group              Opt        `xml:"group,attr"`
	SubGroup           Opt        `xml:"subgroup,attr"`
	EditType           Opt        `xml:"edittype,attr"`
	ReadOnly           Opt        `xml:"readonly,attr"`
	InitOnly           Opt        `xml:"initonly,attr"`
	Hidden             Opt        `xml:"hidden,attr"`
	Control            Opt        `xml:"control,attr"`
	Style              Opt        `xml:"style,attr"`
	Expr               Opt        `xml:"expr,attr"`
	Bind               Opt        `xml:"bind,attr"`
	Deprecated         Opt        `xml:"deprecated,attr"`
	Unused             Opt        `xml:"unused,attr"`
	Mandatory          Opt        `xml:"mandatory,attr"`
	ObjectInfo         Opt        `xml:"objectinfo,attr"`
	EnumInfo           Opt        `xml:"enuminfo,attr"`
	UnitInfo           Opt        `xml:"unitinfo,attr"`
	Delimiter          Opt        `xml:"delimiter,attr"`
	Requirement        Opt        `xml:"requirement,attr"`
	Description        Opt        `xml:"description,attr"`
	CSSPropertyName    Opt        `xml:"csspropertyname,attr"`
	NormalPropertyName Opt        `xml:"normalpropertyname,attr"`
	StringRC           Opt        `xml:"stringrc,attr"`
	DefaultStringRC    Opt        `xml:"defaultstringrc,attr"`
	Extra              []xml.Attr `xml:",any,attr"`
}

// StatusRecord is one StatusInfo > Status element.
type StatusRecord struct {
	Name       Opt        `xml:"name,attr"`
	Control    Opt        `xml:"control,attr"`
	Default    Opt        `xml:"default,attr"`
	Deprecated Opt        `xml:"deprecated,attr"`
	Unused     Opt        `xml:"unused,attr"`
	Group      Opt        `xml:"group,attr"`
	Extra      []xml.Attr `xml:",any,attr"`
}

// ControlRecord is one ControlInfo > Control element.
type ControlRecord struct {
	Name          Opt        `xml:"name,attr"`
	ClassName     Opt        `xml:"classname,attr"`
	UnusedStatus  Opt        `xml:"unusedstatus,attr"`
	UnusedControl Opt        `xml:"unusedcontrol,attr"`
	Deprecated    Opt        `xml:"deprecated,attr"`
	Unused        Opt        `xml:"unused,attr"`
	Group         Opt        `xml:"group,attr"`
	SubGroup      Opt        `xml:"subgroup,attr"`
	Extra         []xml.Attr `xml:",any,attr"`
}

// MethodRecord is one MethodInfo > Method element with its call syntax.
type MethodRecord struct {
	Name           Opt        `xml:"name,attr"`
	Group          Opt        `xml:"group,attr"`
	Async          Opt        `xml:"async,attr"`
	UseContextMenu Opt        `xml:"usecontextmenu,attr"`
	Deprecated     Opt        `xml:"deprecated,attr"`
	Unused         Opt        `xml:"unused,attr"`
	Requirement    Opt        `xml:"requirement,attr"`
	Description    Opt        `xml:"description,attr"`
	Extra          []xml.Attr `xml:",any,attr"`
	Syntax         *Syntax    `xml:"Syntax"`
}

// EventHandlerRecord is one EventHandlerInfo > EventHandler element.
type EventHandlerRecord struct {
	Name        Opt        `xml:"name,attr"`
	Group       Opt        `xml:"group,attr"`
	Deprecated  Opt        `xml:"deprecated,attr"`
	Unused      Opt        `xml:"unused,attr"`
	Requirement Opt        `xml:"requirement,attr"`
	Description Opt        `xml:"description,attr"`
	Extra       []xml.Attr `xml:",any,attr"`
	Syntax      *Syntax    `xml:"Syntax"`
}

// Syntax is the signature block shared by methods and event handlers.
type Syntax struct {
	Text      Opt        `xml:"text,attr"`
	Extra     []xml.Attr `xml:",any,attr"`
	Return    *Return    `xml:"Return"`
	Arguments []Argument `xml:"Arguments>Argument"`
}

// Return describes the value a method yields.
type Return struct {
	Type        Opt        `xml:"type,attr"`
	Description Opt        `xml:"description,attr"`
	Extra       []xml.Attr `xml:",any,attr"`
}

// Argument is one ordered parameter of a Syntax block.
type Argument struct {
	Name        Opt        `xml:"name,attr"`
	Type        Opt        `xml:"type,attr"`
	In          Opt        `xml:"in,attr"`
	Out         Opt        `xml:"out,attr"`
	Option      Opt        `xml:"option,attr"`
	Variable    Opt        `xml:"variable,attr"`
	Description Opt        `xml:"description,attr"`
	Extra       []xml.Attr `xml:",any,attr"`
}

// Document is a parsed INFO document.
type Document struct {
	Version string `json:"version"`
	// RootAttrs are MetaInfo attributes other than version, namespace
	// declarations included.
	RootAttrs []Attr `json:"rootAttributes,omitempty"`
	ObjectID  string `json:"objectId"`
	// ObjectAttrs are Object attributes other than id.
	ObjectAttrs   []Attr               `json:"objectAttributes,omitempty"`
	ObjectInfo    ObjectInfo           `json:"objectInfo"`
	Properties    []PropertyRecord     `json:"propertyInfo"`
	CSS           []CSSRecord          `json:"cssInfo"`
	Statuses      []StatusRecord       `json:"statusInfo"`
	Controls      []ControlRecord      `json:"controlInfo"`
	Methods       []MethodRecord       `json:"methodInfo"`
	EventHandlers []EventHandlerRecord `json:"eventHandlerInfo"`
	// Trailing is everything after the last </MetaInfo>, kept verbatim.
	Trailing string `json:"trailingContent"`
}

// Counts reports the number of records per section.
func (d *Document) Counts() map[string]int {
	return map[string]int{
		SectionPropertyInfo:     len(d.Properties),
		SectionCSSInfo:          len(d.CSS),
		SectionStatusInfo:       len(d.Statuses),
		SectionControlInfo:      len(d.Controls),
		SectionMethodInfo:       len(d.Methods),
		SectionEventHandlerInfo: len(d.EventHandlers),
	}
}

// Section names as they appear in documents and workbooks.
const (
	SectionObjectInfo       = "ObjectInfo"
	SectionPropertyInfo     = "PropertyInfo"
	SectionCSSInfo          = "CSSInfo"
	SectionStatusInfo       = "StatusInfo"
	SectionControlInfo      = "ControlInfo"
	SectionMethodInfo       = "MethodInfo"
	SectionEventHandlerInfo = "EventHandlerInfo"
)
