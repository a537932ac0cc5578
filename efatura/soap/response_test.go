package soap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginResponse = `<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <LoginResponse xmlns="http://tempuri.org/">
      <LoginResult>
        <SessionCode>abc-123</SessionCode>
        <OperationCompleted>true</OperationCompleted>
      </LoginResult>
    </LoginResponse>
  </s:Body>
</s:Envelope>`

func TestResponse_TolerantLookup(t *testing.T) {
	res, err := Parse([]byte(loginResponse))
	require.NoError(t, err)

	assert.Equal(t, "abc-123", res.Text("SessionCode"))
	assert.True(t, res.Bool("OperationCompleted"))

	// Absent fields yield zero defaults, never errors.
	assert.Equal(t, "", res.Text("NoSuchField"))
	assert.Equal(t, 0, res.Int("NoSuchField"))
	assert.False(t, res.Bool("NoSuchField"))
	assert.False(t, res.Has("NoSuchField"))
	assert.True(t, res.Has("SessionCode"))
}

func TestResponse_IntMalformed(t *testing.T) {
	res, err := Parse([]byte(`<r><StateCode>banana</StateCode><Other>7</Other></r>`))
	require.NoError(t, err)

	assert.Equal(t, 0, res.Int("StateCode"))
	assert.Equal(t, 7, res.Int("Other"))
}

func TestResponse_Each(t *testing.T) {
	body := `<r><List>
	  <SalesInvoiceInfo><InvoiceNumber>FAT2026000000001</InvoiceNumber></SalesInvoiceInfo>
	  <SalesInvoiceInfo><InvoiceNumber>FAT2026000000002</InvoiceNumber></SalesInvoiceInfo>
	</List></r>`
	res, err := Parse([]byte(body))
	require.NoError(t, err)

	var numbers []string
	res.Each("SalesInvoiceInfo", func(item *Item) {
		numbers = append(numbers, item.Text("InvoiceNumber"))
	})

	assert.Equal(t, []string{"FAT2026000000001", "FAT2026000000002"}, numbers)
}

func TestResponse_Fault(t *testing.T) {
	body := `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
	  <s:Body>
	    <Result>
	      <FaultCode>5002</FaultCode>
	      <FaultDescription>Kullanıcı adı veya şifre hatalı</FaultDescription>
	    </Result>
	  </s:Body>
	</s:Envelope>`
	res, err := Parse([]byte(body))
	require.NoError(t, err)

	var fe *FaultError
	require.ErrorAs(t, res.Fault(), &fe)
	assert.Equal(t, CodeLoginFailed, fe.Code)
	assert.Contains(t, fe.Message, "hatalı")
}

func TestResponse_StandardSOAPFault(t *testing.T) {
	body := `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
	  <soap:Body>
	    <soap:Fault>
	      <faultcode>soap:Server</faultcode>
	      <faultstring>Internal error</faultstring>
	    </soap:Fault>
	  </soap:Body>
	</soap:Envelope>`
	res, err := Parse([]byte(body))
	require.NoError(t, err)

	var fe *FaultError
	require.ErrorAs(t, res.Fault(), &fe)
	assert.Equal(t, "Internal error", fe.Message)
}

func TestResponse_NoFault(t *testing.T) {
	res, err := Parse([]byte(loginResponse))
	require.NoError(t, err)
	assert.NoError(t, res.Fault())
}

func TestParse_NotXML(t *testing.T) {
	_, err := Parse([]byte("<html><body>502 Bad Gateway</body>"))
	require.Error(t, err)

	var ue *UnexpectedResponseError
	assert.ErrorAs(t, err, &ue)
}

func TestCodeMessage(t *testing.T) {
	assert.Equal(t, "system fault", CodeMessage(CodeSystemFault))
	assert.Equal(t, "queue insert failed", CodeMessage(CodeQueueInsert))
	assert.Contains(t, CodeMessage(9999), "9999")
}
