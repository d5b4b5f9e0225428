package render

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"sigs.k8s.io/controller-runtime/pkg/client"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

const (
	defaultImage         = "quay.io/warden/platform"
	defaultImageVersion  = "latest"
	defaultPostgresImage = "postgres:13"
	defaultRedisImage    = "redis:7"
	webPort              = 8052
)

// Render produces the full desired object set for a platform, in apply
// order: secrets and claims first, then the database and cache tiers, then
// the web and task tiers. taskReplicas is passed separately because the
// autoscaler owns it once enabled.
func Render(p *wardenv1alpha1.Platform, taskReplicas int32) []client.Object {
	var objs []client.Object

	if p.Spec.AdminPasswordSecret == "" {
		objs = append(objs, AdminPasswordSecret(p))
	}
	if p.Spec.ProjectsPersistence {
		objs = append(objs, ProjectsClaim(p))
	}
	if p.Spec.PostgresConfigurationSecret == "" {
		objs = append(objs, PostgresConfigurationSecret(p), PostgresStatefulSet(p), PostgresService(p))
	}
	objs = append(objs,
		RedisDeployment(p),
		RedisService(p),
		WebDeployment(p),
		WebService(p),
		TaskDeployment(p, taskReplicas),
	)
	if p.Spec.IngressType == "ingress" {
		objs = append(objs, WebIngress(p))
	}
	return objs
}

// databaseEnv wires the connection secret into an application pod. All
// values come from the configuration secret so rotated credentials roll
// out on the next pod restart.
func databaseEnv(p *wardenv1alpha1.Platform) []corev1.EnvVar {
	secret := PostgresConfigurationSecretName(p)
	return []corev1.EnvVar{
		secretEnv("DATABASE_HOST", secret, "host"),
		secretEnv("DATABASE_PORT", secret, "port"),
		secretEnv("DATABASE_NAME", secret, "database"),
		secretEnv("DATABASE_USER", secret, "username"),
		secretEnv("DATABASE_PASSWORD", secret, "password"),
	}
}

func secretEnv(name, secretName, key string) corev1.EnvVar {
	return corev1.EnvVar{
		Name: name,
		ValueFrom: &corev1.EnvVarSource{
			SecretKeyRef: &corev1.SecretKeySelector{
				LocalObjectReference: corev1.LocalObjectReference{Name: secretName},
				Key:                  key,
			},
		},
	}
}

// Labels returns the common label set for one component of a platform.
func Labels(p *wardenv1alpha1.Platform, component string) map[string]string {
	return map[string]string{
		"app.kubernetes.io/name":       p.Name,
		"app.kubernetes.io/component":  component,
		"app.kubernetes.io/managed-by": "warden",
	}
}

func appImage(p *wardenv1alpha1.Platform) string {
	image := p.Spec.Image
	if image == "" {
		image = defaultImage
	}
	version := p.Spec.ImageVersion
	if version == "" {
		version = defaultImageVersion
	}
	return fmt.Sprintf("%s:%s", image, version)
}

func pullPolicy(p *wardenv1alpha1.Platform) corev1.PullPolicy {
	if p.Spec.ImagePullPolicy == "" {
		return corev1.PullIfNotPresent
	}
	return corev1.PullPolicy(p.Spec.ImagePullPolicy)
}

// AdminPasswordSecretName is where the generated admin password lives.
func AdminPasswordSecretName(p *wardenv1alpha1.Platform) string {
	if p.Spec.AdminPasswordSecret != "" {
		return p.Spec.AdminPasswordSecret
	}
	return p.Name + "-admin-password"
}

// AdminPasswordSecret generates a random password on first render. The
// applier never overwrites secret data, so the password is stable across
// passes.
func AdminPasswordSecret(p *wardenv1alpha1.Platform) *corev1.Secret {
	buf := make([]byte, 16)
	rand.Read(buf)
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      AdminPasswordSecretName(p),
			Namespace: p.Namespace,
			Labels:    Labels(p, "web"),
		},
		Data: map[string][]byte{
			"username": []byte(p.Spec.AdminUser),
			"password": []byte(hex.EncodeToString(buf)),
		},
	}
}

// PostgresConfigurationSecretName is the connection secret consulted for
// database access, either user-provided (external database) or generated
// for the managed tier.
func PostgresConfigurationSecretName(p *wardenv1alpha1.Platform) string {
	if p.Spec.PostgresConfigurationSecret != "" {
		return p.Spec.PostgresConfigurationSecret
	}
	return p.Name + "-postgres-configuration"
}

// PostgresConfigurationSecret generates the connection settings for the
// managed database tier, password included. Like the admin password, the
// applier never overwrites secret data once created.
func PostgresConfigurationSecret(p *wardenv1alpha1.Platform) *corev1.Secret {
	buf := make([]byte, 16)
	rand.Read(buf)
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Name + "-postgres-configuration",
			Namespace: p.Namespace,
			Labels:    Labels(p, "database"),
		},
		Data: map[string][]byte{
			"host":     []byte(p.Name + "-postgres"),
			"port":     []byte("5432"),
			"database": []byte(p.Name),
			"username": []byte(p.Name),
			"password": []byte(hex.EncodeToString(buf)),
		},
	}
}

// ProjectsClaim is the shared project-data volume.
func ProjectsClaim(p *wardenv1alpha1.Platform) *corev1.PersistentVolumeClaim {
	size := p.Spec.ProjectsStorageSize
	if size == "" {
		size = "8Gi"
	}
	return &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Name + "-projects",
			Namespace: p.Namespace,
			Labels:    Labels(p, "web"),
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteMany},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{
					corev1.ResourceStorage: resource.MustParse(size),
				},
			},
		},
	}
}

// PostgresStatefulSet renders the database tier with its volume claim
// template.
func PostgresStatefulSet(p *wardenv1alpha1.Platform) *appsv1.StatefulSet {
	labels := Labels(p, "database")
	replicas := int32(1)
	image := p.Spec.PostgresImage
	if image == "" {
		image = defaultPostgresImage
	}
	size := p.Spec.PostgresStorageSize
	if size == "" {
		size = "8Gi"
	}

	claim := corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{Name: "data"},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{
					corev1.ResourceStorage: resource.MustParse(size),
				},
			},
		},
	}
	if p.Spec.PostgresStorageClass != "" {
		claim.Spec.StorageClassName = &p.Spec.PostgresStorageClass
	}

	return &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Name + "-postgres",
			Namespace: p.Namespace,
			Labels:    labels,
		},
		Spec: appsv1.StatefulSetSpec{
			ServiceName: p.Name + "-postgres",
			Replicas:    &replicas,
			Selector:    &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{
						Name:            "postgres",
						Image:           image,
						ImagePullPolicy: pullPolicy(p),
						Ports:           []corev1.ContainerPort{{Name: "postgres", ContainerPort: 5432}},
						Env: []corev1.EnvVar{
							{Name: "POSTGRES_DB", Value: p.Name},
							{Name: "POSTGRES_USER", Value: p.Name},
							secretEnv("POSTGRES_PASSWORD", p.Name+"-postgres-configuration", "password"),
							{Name: "PGDATA", Value: "/var/lib/postgresql/data/pgdata"},
						},
						VolumeMounts: []corev1.VolumeMount{{
							Name:      "data",
							MountPath: "/var/lib/postgresql/data",
						}},
					}},
				},
			},
			VolumeClaimTemplates: []corev1.PersistentVolumeClaim{claim},
		},
	}
}

// PostgresService is the headless database service.
func PostgresService(p *wardenv1alpha1.Platform) *corev1.Service {
	labels := Labels(p, "database")
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Name + "-postgres",
			Namespace: p.Namespace,
			Labels:    labels,
		},
		Spec: corev1.ServiceSpec{
			ClusterIP: corev1.ClusterIPNone,
			Selector:  labels,
			Ports:     []corev1.ServicePort{{Name: "postgres", Port: 5432}},
		},
	}
}

// RedisDeployment renders the cache tier.
func RedisDeployment(p *wardenv1alpha1.Platform) *appsv1.Deployment {
	labels := Labels(p, "cache")
	replicas := int32(1)
	image := p.Spec.RedisImage
	if image == "" {
		image = defaultRedisImage
	}
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Name + "-redis",
			Namespace: p.Namespace,
			Labels:    labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{
						Name:            "redis",
						Image:           image,
						ImagePullPolicy: pullPolicy(p),
						Ports:           []corev1.ContainerPort{{Name: "redis", ContainerPort: 6379}},
					}},
				},
			},
		},
	}
}

// RedisService fronts the cache tier.
func RedisService(p *wardenv1alpha1.Platform) *corev1.Service {
	labels := Labels(p, "cache")
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Name + "-redis",
			Namespace: p.Namespace,
			Labels:    labels,
		},
		Spec: corev1.ServiceSpec{
			Selector: labels,
			Ports:    []corev1.ServicePort{{Name: "redis", Port: 6379}},
		},
	}
}

// WebDeployment renders the web tier.
func WebDeployment(p *wardenv1alpha1.Platform) *appsv1.Deployment {
	labels := Labels(p, "web")
	replicas := p.Spec.WebReplicas
	if replicas < 1 {
		replicas = 1
	}

	env := []corev1.EnvVar{
		{Name: "ADMIN_USER", Value: p.Spec.AdminUser},
		{Name: "ADMIN_EMAIL", Value: p.Spec.AdminEmail},
		{Name: "REDIS_HOST", Value: p.Name + "-redis"},
	}
	env = append(env, databaseEnv(p)...)

	pod := corev1.PodSpec{
		Containers: []corev1.Container{{
			Name:            "web",
			Image:           appImage(p),
			ImagePullPolicy: pullPolicy(p),
			Ports:           []corev1.ContainerPort{{Name: "http", ContainerPort: webPort}},
			Env:             env,
		}},
	}
	if p.Spec.ProjectsPersistence {
		pod.Volumes = []corev1.Volume{{
			Name: "projects",
			VolumeSource: corev1.VolumeSource{
				PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
					ClaimName: p.Name + "-projects",
				},
			},
		}}
		pod.Containers[0].VolumeMounts = []corev1.VolumeMount{{
			Name:      "projects",
			MountPath: "/var/lib/projects",
		}}
	}

	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Name + "-web",
			Namespace: p.Namespace,
			Labels:    labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec:       pod,
			},
		},
	}
}

// WebService fronts the web tier with the configured service type.
func WebService(p *wardenv1alpha1.Platform) *corev1.Service {
	labels := Labels(p, "web")
	svcType := corev1.ServiceTypeClusterIP
	if p.Spec.ServiceType != "" {
		svcType = corev1.ServiceType(p.Spec.ServiceType)
	}
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Name + "-web",
			Namespace: p.Namespace,
			Labels:    labels,
		},
		Spec: corev1.ServiceSpec{
			Type:     svcType,
			Selector: labels,
			Ports:    []corev1.ServicePort{{Name: "http", Port: 80, TargetPort: intstr.FromInt32(webPort)}},
		},
	}
}

// WebIngress exposes the web service on the configured hostname.
func WebIngress(p *wardenv1alpha1.Platform) *networkingv1.Ingress {
	pathType := networkingv1.PathTypePrefix
	return &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Name + "-web",
			Namespace: p.Namespace,
			Labels:    Labels(p, "web"),
		},
		Spec: networkingv1.IngressSpec{
			Rules: []networkingv1.IngressRule{{
				Host: p.Spec.Hostname,
				IngressRuleValue: networkingv1.IngressRuleValue{
					HTTP: &networkingv1.HTTPIngressRuleValue{
						Paths: []networkingv1.HTTPIngressPath{{
							Path:     "/",
							PathType: &pathType,
							Backend: networkingv1.IngressBackend{
								Service: &networkingv1.IngressServiceBackend{
									Name: p.Name + "-web",
									Port: networkingv1.ServiceBackendPort{Number: 80},
								},
							},
						}},
					},
				},
			}},
		},
	}
}

// TaskDeployment renders the task tier at the given replica count.
func TaskDeployment(p *wardenv1alpha1.Platform, replicas int32) *appsv1.Deployment {
	labels := Labels(p, "task")
	if replicas < 0 {
		replicas = 0
	}

	env := []corev1.EnvVar{
		{Name: "REDIS_HOST", Value: p.Name + "-redis"},
	}
	env = append(env, databaseEnv(p)...)
	if p.Spec.Autoscaling != nil && p.Spec.Autoscaling.MaxForksPerTask > 0 {
		env = append(env, corev1.EnvVar{
			Name:  "MAX_FORKS_PER_TASK",
			Value: fmt.Sprintf("%d", p.Spec.Autoscaling.MaxForksPerTask),
		})
	}

	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Name + "-task",
			Namespace: p.Namespace,
			Labels:    labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{
						Name:            "task",
						Image:           appImage(p),
						ImagePullPolicy: pullPolicy(p),
						Command:         []string{"run-dispatcher"},
						Env:             env,
					}},
				},
			},
		},
	}
}
