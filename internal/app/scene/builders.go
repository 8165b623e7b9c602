package scene

// Box returns a box placing children at their frames.
func Box(name string, children ...*Node) *Node {
	return &Node{Kind: KindBox, Name: name, Children: children}
}

// Column returns a box stacking children vertically.
func Column(name string, children ...*Node) *Node {
	return &Node{Kind: KindBox, Name: name, Flow: FlowColumn, Children: children}
}

// Row returns a box stacking children horizontally.
func Row(name string, children ...*Node) *Node {
	return &Node{Kind: KindBox, Name: name, Flow: FlowRow, Children: children}
}

// Label returns a text node.
func Label(name, text string, style TextStyle) *Node {
	return &Node{Kind: KindText, Name: name, Text: text, Style: style}
}

// Picture returns an image node drawn contain-fit inside its box.
func Picture(name, source string) *Node {
	return &Node{Kind: KindImage, Name: name, Source: source}
}
