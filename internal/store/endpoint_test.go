package store_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/netdevopsbr/proxbox/internal/config"
	st "github.com/netdevopsbr/proxbox/internal/store"
	"github.com/netdevopsbr/proxbox/internal/store/model"
)

var _ = Describe("endpoint store", Ordered, func() {
	var (
		store  st.Store
		gormDB *gorm.DB
	)

	BeforeAll(func() {
		cfg, err := config.NewDefault()
		Expect(err).To(BeNil())

		db, err := st.InitDB(cfg)
		Expect(err).To(BeNil())
		gormDB = db

		store = st.NewStore(db)
		Expect(store).ToNot(BeNil())
		Expect(store.InitialMigration()).To(Succeed())
	})

	AfterAll(func() {
		store.Close()
	})

	AfterEach(func() {
		gormDB.Exec("DELETE from net_box_endpoints;")
		gormDB.Exec("DELETE from proxmox_endpoints;")
	})

	Context("netbox endpoints", func() {
		It("creates and lists endpoints", func() {
			created, err := store.NetBoxEndpoint().Create(context.TODO(), model.NetBoxEndpoint{
				Name:      "netbox-prod",
				Domain:    "netbox.example.com",
				Port:      443,
				Token:     "0123456789abcdef",
				VerifySSL: true,
			})
			Expect(err).To(BeNil())
			Expect(created.ID).ToNot(BeZero())

			endpoints, err := store.NetBoxEndpoint().List(context.TODO())
			Expect(err).To(BeNil())
			Expect(endpoints).To(HaveLen(1))
			Expect(endpoints[0].Name).To(Equal("netbox-prod"))
		})

		It("builds https urls for verified endpoints", func() {
			endpoint := model.NetBoxEndpoint{
				Name:      "netbox-prod",
				Domain:    "netbox.example.com",
				Port:      443,
				Token:     "0123456789abcdef",
				VerifySSL: true,
			}
			Expect(endpoint.URL()).To(Equal("https://netbox.example.com:443"))
		})

		It("returns not found for a missing endpoint", func() {
			_, err := store.NetBoxEndpoint().Get(context.TODO(), 9999)
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})

		It("updates an endpoint preserving its creation time", func() {
			created, err := store.NetBoxEndpoint().Create(context.TODO(), model.NetBoxEndpoint{
				Name:   "netbox-prod",
				Domain: "netbox.example.com",
				Port:   443,
				Token:  "0123456789abcdef",
			})
			Expect(err).To(BeNil())

			created.Token = "fedcba9876543210"
			updated, err := store.NetBoxEndpoint().Update(context.TODO(), *created)
			Expect(err).To(BeNil())
			Expect(updated.Token).To(Equal("fedcba9876543210"))
			Expect(updated.CreatedAt).To(Equal(created.CreatedAt))
		})

		It("deletes an endpoint", func() {
			created, err := store.NetBoxEndpoint().Create(context.TODO(), model.NetBoxEndpoint{
				Name:   "netbox-prod",
				Domain: "netbox.example.com",
				Token:  "0123456789abcdef",
			})
			Expect(err).To(BeNil())

			Expect(store.NetBoxEndpoint().Delete(context.TODO(), created.ID)).To(Succeed())
			Expect(store.NetBoxEndpoint().Delete(context.TODO(), created.ID)).To(MatchError(st.ErrRecordNotFound))
		})
	})

	Context("proxmox endpoints", func() {
		It("creates and gets an endpoint", func() {
			created, err := store.ProxmoxEndpoint().Create(context.TODO(), model.ProxmoxEndpoint{
				Name:       "pve-prod",
				IPAddress:  "192.168.1.10",
				Port:       8006,
				TokenName:  "proxbox@pam!api",
				TokenValue: "secret",
			})
			Expect(err).To(BeNil())

			endpoint, err := store.ProxmoxEndpoint().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(endpoint.TokenName).To(Equal("proxbox@pam!api"))
			Expect(endpoint.URL()).To(Equal("https://192.168.1.10:8006"))
		})

		It("lists endpoints ordered by id", func() {
			for _, name := range []string{"pve-a", "pve-b"} {
				_, err := store.ProxmoxEndpoint().Create(context.TODO(), model.ProxmoxEndpoint{
					Name:       name,
					IPAddress:  "192.168.1.10",
					TokenName:  "proxbox@pam!api",
					TokenValue: "secret",
				})
				Expect(err).To(BeNil())
			}

			endpoints, err := store.ProxmoxEndpoint().List(context.TODO())
			Expect(err).To(BeNil())
			Expect(endpoints).To(HaveLen(2))
			Expect(endpoints[0].Name).To(Equal("pve-a"))
		})
	})
})
