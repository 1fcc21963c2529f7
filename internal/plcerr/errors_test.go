package plcerr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"plcbridge/internal/i18n"
)

func TestLocalizedMessages(t *testing.T) {
	i18n.SetLanguage("zh")
	assert.Equal(t, "间隔时间不能为零", ZeroInterval().Error())
	assert.Contains(t, ClientNotFound(42).Error(), "42")
	assert.Contains(t, TaskNotFound(7, 100).Error(), "100")
}

func TestKindDiscrimination(t *testing.T) {
	assert.True(t, Is(ClientNotFound(1), KindClientNotFound))
	assert.False(t, Is(ClientNotFound(1), KindTaskNotFound))
}
