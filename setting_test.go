package solstice

import (
	"errors"
	"testing"
)

func TestSetting_Value(t *testing.T) {
	t.Run("should fail when neither source has a value", func(t *testing.T) {
		setting := NewSetting[string]("json_rpc_url", false)

		_, err := setting.Value()
		if !errors.Is(err, ErrNotConfigured) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", ErrNotConfigured, err)
		}
	})

	t.Run("should return the persisted value when no override is set", func(t *testing.T) {
		setting := NewSetting[string]("json_rpc_url", false)
		setting.setPersisted("https://api.mainnet-beta.solana.com")

		got, err := setting.Value()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got != "https://api.mainnet-beta.solana.com" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "https://api.mainnet-beta.solana.com", got)
		}
	})

	t.Run("override should win over the persisted value", func(t *testing.T) {
		setting := NewSetting[string]("json_rpc_url", false)
		setting.setPersisted("https://api.mainnet-beta.solana.com")
		setting.setOverride("https://custom.example/rpc")

		got, err := setting.Value()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got != "https://custom.example/rpc" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "https://custom.example/rpc", got)
		}
	})

	t.Run("clearing the override should revert to the persisted value", func(t *testing.T) {
		setting := NewSetting[string]("json_rpc_url", false)
		setting.setPersisted("https://api.mainnet-beta.solana.com")
		setting.setOverride("https://custom.example/rpc")
		setting.clearOverride()

		got, err := setting.Value()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got != "https://api.mainnet-beta.solana.com" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "https://api.mainnet-beta.solana.com", got)
		}
	})

	t.Run("override should apply even with no persisted value", func(t *testing.T) {
		setting := NewSetting[string]("authority_keypair", false)
		setting.setOverride("usb://ledger")

		got, err := setting.Value()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got != "usb://ledger" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "usb://ledger", got)
		}
	})

	t.Run("persisted should ignore the override", func(t *testing.T) {
		setting := NewSetting[string]("json_rpc_url", false)
		setting.setPersisted("https://api.mainnet-beta.solana.com")
		setting.setOverride("https://custom.example/rpc")

		got, ok := setting.Persisted()
		if !ok {
			t.Fatalf("\nwanted:\npersisted value present\ngot:\nabsent")
		}
		if got != "https://api.mainnet-beta.solana.com" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "https://api.mainnet-beta.solana.com", got)
		}
	})
}
