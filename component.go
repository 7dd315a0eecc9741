package apifetch

const (
	// PropAPIConfig is the provider prop forwarded to the transport.
	PropAPIConfig = "apiConfig"
	// PropAPIData is the provider prop holding an ApiData snapshot.
	PropAPIData = "apiData"
	// PropOnFetched is the consumer prop called once its own fetches settle.
	PropOnFetched = "onFetched"
)

// Props is the input of a component.
type Props map[string]any

func (p Props) clone() Props {
	res := make(Props, len(p))
	for k, v := range p {
		res[k] = v
	}

	return res
}

func (p Props) without(keys ...string) Props {
	res := p.clone()
	for _, k := range keys {
		delete(res, k)
	}

	return res
}

// RenderFunc describes the children of a component for the given props.
type RenderFunc func(props Props) []Element

type componentKind uint8

const (
	kindPlain componentKind = iota
	kindProvider
	kindConsumer
)

// Component is a static description of a tree node type.
type Component struct {
	Name string
	// Fetches declares the data requirements injected as props of the same name.
	Fetches map[string]FetchSpec
	Render  RenderFunc

	kind componentKind
	api  *API
}

// Element is a component with its props.
type Element struct {
	Type  *Component
	Props Props
}

// NewElement creates an element.
func NewElement(c *Component, props Props) Element {
	return Element{Type: c, Props: props}
}

func (c *Component) render(props Props) []Element {
	if c == nil || c.Render == nil {
		return nil
	}

	return c.Render(props)
}
