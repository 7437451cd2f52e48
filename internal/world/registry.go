package world

import "fmt"

// BlockRegistry неизменяемый набор конфигураций блоков.
// Строится один раз при старте и дальше только читается, в том числе из воркеров.
type BlockRegistry struct {
	configs [blockTypeCount]BlockTypeConfig
	present [blockTypeCount]bool
	types   []BlockType
}

// NewBlockRegistry проверяет и упаковывает конфигурации блоков
func NewBlockRegistry(configs []BlockTypeConfig) (*BlockRegistry, error) {
	reg := &BlockRegistry{}

	for _, cfg := range configs {
		if !cfg.Type.Valid() || cfg.Type == BlockNone {
			return nil, fmt.Errorf("недопустимый тип блока %v в конфигурации", cfg.Type)
		}
		if reg.present[cfg.Type] {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateBlockConfig, cfg.Type)
		}
		reg.configs[cfg.Type] = cfg
		reg.present[cfg.Type] = true
		reg.types = append(reg.types, cfg.Type)
	}

	for _, t := range ClassifiedTypes {
		if !reg.present[t] {
			return nil, fmt.Errorf("%w: %v", ErrMissingBlockConfig, t)
		}
	}

	return reg, nil
}

// Get возвращает конфигурацию типа блока
func (r *BlockRegistry) Get(t BlockType) (BlockTypeConfig, bool) {
	if !t.Valid() || !r.present[t] {
		return BlockTypeConfig{}, false
	}
	return r.configs[t], true
}

// Types возвращает зарегистрированные типы в порядке конфигурации
func (r *BlockRegistry) Types() []BlockType {
	out := make([]BlockType, len(r.types))
	copy(out, r.types)
	return out
}

// SameLayer сообщает, скрывается ли грань между блоками a и b.
// Типы без конфигурации (BlockNone) ни с чем не сливаются.
func (r *BlockRegistry) SameLayer(a, b BlockType) bool {
	ca, ok := r.Get(a)
	if !ok {
		return false
	}
	cb, ok := r.Get(b)
	if !ok {
		return false
	}
	return ca.Layer == cb.Layer
}
