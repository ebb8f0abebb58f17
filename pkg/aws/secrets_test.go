package aws

import (
	"context"
	"errors"
	"testing"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecretsAPI struct {
	values map[string]string
	calls  int
}

func (f *fakeSecretsAPI) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	v, ok := f.values[*in.SecretId]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: sdkaws.String(v)}, nil
}

func TestSecretsClient_GetSecretMapIsCached(t *testing.T) {
	api := &fakeSecretsAPI{values: map[string]string{
		"storefront/credentials": `{"MONGO_URI":"mongodb+srv://prod","PAYHERE_MERCHANT_SECRET":"s3cret"}`,
	}}
	client := newSecretsClient(api)

	m, err := client.GetSecretMap(context.Background(), "storefront/credentials")
	require.NoError(t, err)
	assert.Equal(t, "mongodb+srv://prod", m["MONGO_URI"])

	_, err = client.GetSecretMap(context.Background(), "storefront/credentials")
	require.NoError(t, err)
	assert.Equal(t, 1, api.calls)
}

func TestSecretsClient_Errors(t *testing.T) {
	client := newSecretsClient(&fakeSecretsAPI{values: map[string]string{"storefront/plain": "not-json"}})

	_, err := client.GetSecret(context.Background(), "storefront/missing")
	assert.ErrorContains(t, err, "storefront/missing")

	_, err = client.GetSecretMap(context.Background(), "storefront/plain")
	assert.ErrorContains(t, err, "not a JSON object")
}
