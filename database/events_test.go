// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsTriggerFansOutToCatchAllAndNamed(t *testing.T) {
	events := NewEvents()
	var seenByAll, seenByNamed []string

	events.On(EventAll, func(event string, args interface{}) {
		seenByAll = append(seenByAll, event)
	})
	events.On(EventDocumentCreate, func(event string, args interface{}) {
		seenByNamed = append(seenByNamed, event)
	})

	events.Trigger(context.Background(), EventDocumentCreate, nil)
	events.Trigger(context.Background(), EventDocumentUpdate, nil)

	assert.Equal(t, []string{EventDocumentCreate, EventDocumentUpdate}, seenByAll)
	assert.Equal(t, []string{EventDocumentCreate}, seenByNamed)
}

func TestEventsSilentSuppressesEmission(t *testing.T) {
	events := NewEvents()
	var fired int
	events.On(EventAll, func(event string, args interface{}) {
		fired++
	})

	err := events.Silent(func() error {
		events.Trigger(context.Background(), EventDocumentCreate, nil)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, fired)

	events.Trigger(context.Background(), EventDocumentCreate, nil)
	assert.Equal(t, 1, fired)
}

func TestEventsSilentRestoresAfterNestedScopes(t *testing.T) {
	events := NewEvents()
	var fired int
	events.On(EventAll, func(event string, args interface{}) {
		fired++
	})

	outerErr := events.Silent(func() error {
		return events.Silent(func() error {
			events.Trigger(context.Background(), EventDocumentCreate, nil)
			return nil
		})
	})
	require.NoError(t, outerErr)
	assert.Equal(t, 0, fired)

	events.Trigger(context.Background(), EventDocumentCreate, nil)
	assert.Equal(t, 1, fired)
}
