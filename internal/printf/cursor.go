package printf

// Cursor is a byte position inside a format string.
type Cursor struct {
	Src string
	Off int
}

func NewCursor(src string) Cursor {
	return Cursor{Src: src}
}

// EOF проверяет, достигнут ли конец строки
func (c *Cursor) EOF() bool {
	return c.Off >= len(c.Src)
}

// Peek читает текущий байт, если есть, иначе возвращает 0
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.Src[c.Off]
}

// Bump перемещает курсор на один байт вперед и возвращает прочитанный байт
func (c *Cursor) Bump() byte {
	if c.EOF() {
		return 0
	}
	b := c.Src[c.Off]
	c.Off++
	return b
}

// Eat consumes the next byte if it matches the provided byte.
func (c *Cursor) Eat(b byte) bool {
	if !c.EOF() && c.Src[c.Off] == b {
		c.Off++
		return true
	}
	return false
}

// EatWhile consumes bytes while pred holds and returns the consumed text.
func (c *Cursor) EatWhile(pred func(byte) bool) string {
	m := c.Mark()
	for !c.EOF() && pred(c.Src[c.Off]) {
		c.Off++
	}
	return c.Src[m:c.Off]
}

// Mark это метка, что бы быстро получать диапазон читаемого фрагмента
type Mark int

// Mark сохраняет текущую позицию курсора
func (c *Cursor) Mark() Mark {
	return Mark(c.Off)
}

// SpanFrom returns the half-open byte range [m, Off).
func (c *Cursor) SpanFrom(m Mark) (start, end int) {
	return int(m), c.Off
}
