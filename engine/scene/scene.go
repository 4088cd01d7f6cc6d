package scene

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/lumen-go/common"
	"github.com/Carmen-Shannon/lumen-go/engine/camera"
	"github.com/Carmen-Shannon/lumen-go/engine/game_object"
	"github.com/Carmen-Shannon/lumen-go/engine/light"
	"github.com/Carmen-Shannon/lumen-go/engine/model"
	"github.com/Carmen-Shannon/lumen-go/engine/pass"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
)

// Scene manages the renderable content of one frame: game objects carrying
// models, analytic lights, the environment light, and the GPU-side geometry
// the ray traced passes traverse (triangle and BVH buffers, emissive triangle
// buffer). The scene owns mesh and instance GPU resources; the engine owns
// everything sized by the screen or the light statistics.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Renderer returns the scene's renderer.
	Renderer() renderer.Renderer

	// Add adds a GameObject to the scene and assigns it an ID if it has
	// none. Objects added after InitGPU only take effect once InitGPU runs
	// again; the geometry version bump signals that to the lifecycle.
	//
	// Parameters:
	//   - obj: the GameObject to add (must carry a Model)
	//
	// Returns:
	//   - uint64: the assigned object ID
	Add(obj game_object.GameObject) uint64

	// Get retrieves a GameObject by its ID.
	// Returns nil if not found.
	//
	// Parameters:
	//   - id: the object's unique ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Remove removes a GameObject from the scene by ID.
	//
	// Parameters:
	//   - id: the object's unique ID
	Remove(id uint64)

	// Count returns the number of GameObjects in the scene.
	//
	// Returns:
	//   - int: the object count
	Count() int

	// AddLight adds an analytic light to the scene.
	//
	// Parameters:
	//   - l: the light to add
	AddLight(l light.Light)

	// RemoveLight removes an analytic light from the scene.
	//
	// Parameters:
	//   - l: the light to remove
	RemoveLight(l light.Light)

	// Lights returns the scene's analytic lights.
	//
	// Returns:
	//   - []light.Light: a copy of the light list
	Lights() []light.Light

	// EnvironmentLight returns the scene's environment light parameters.
	//
	// Returns:
	//   - light.EnvironmentLight: the environment light
	EnvironmentLight() light.EnvironmentLight

	// Stats computes the scene's current light statistics. The engine sizes
	// the sampling resources from these counts.
	//
	// Returns:
	//   - light.Stats: the light statistics
	Stats() light.Stats

	// InitGPU creates the scene's GPU resources: per-mesh vertex and index
	// buffers, per-instance constant buffers, and the traversal geometry
	// buffers. Safe to call again after adding or removing objects; existing
	// resources are released first.
	//
	// Returns:
	//   - error: an error if resource creation fails
	InitGPU() error

	// GeometryVersion returns a counter bumped whenever the traversal
	// buffers are recreated, invalidating bind groups that reference them.
	//
	// Returns:
	//   - uint64: the geometry version
	GeometryVersion() uint64

	// Draws returns the opaque instance draws for the raster G-buffer pass.
	//
	// Returns:
	//   - []pass.MeshDraw: one entry per enabled opaque mesh instance
	Draws() []pass.MeshDraw

	// HasGlass reports whether any enabled instance carries a transmissive
	// material, enabling the glass pass.
	//
	// Returns:
	//   - bool: true when a glass surface is present
	HasGlass() bool

	// GlassIor returns the index of refraction of the first transmissive
	// material, or 1.5 when none is present.
	//
	// Returns:
	//   - float32: the index of refraction
	GlassIor() float32

	// Animate advances object animation, syncs attached light positions,
	// recomputes instance transforms in parallel, and uploads the instance
	// constants. Must run before the G-buffer pass each frame.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	//
	// Returns:
	//   - bool: true when any object moved this frame
	Animate(deltaTime float32) bool

	// RefreshAccel regathers the world-space triangles and rebuilds the BVH
	// and emissive triangle buffers. Runs after load and while the animation
	// hysteresis window is open.
	//
	// Returns:
	//   - error: an error if buffer recreation fails
	RefreshAccel() error

	// BvhBuffer returns the BVH node storage buffer.
	BvhBuffer() *wgpu.Buffer

	// TriangleBuffer returns the traversal triangle storage buffer.
	TriangleBuffer() *wgpu.Buffer

	// EmissiveTriangleBuffer returns the emissive triangle storage buffer.
	EmissiveTriangleBuffer() *wgpu.Buffer

	// CameraPath returns the scripted camera path, or nil.
	CameraPath() *CameraPath

	// SetCameraPath replaces the scripted camera path.
	//
	// Parameters:
	//   - path: the new path, or nil to clear it
	SetCameraPath(path *CameraPath)

	// ApplyCameraPath positions the camera from the path at the given
	// animation frame.
	//
	// Parameters:
	//   - frame: the animation frame index
	//
	// Returns:
	//   - bool: false when the path is absent or exhausted
	ApplyCameraPath(frame uint32) bool

	// Release frees the scene's GPU resources.
	Release()
}

// meshInstance is one submesh of one game object, the unit of G-buffer draws
// and triangle gathering.
type meshInstance struct {
	obj        game_object.GameObject
	mesh       *model.ImportedMesh
	mat        material.Material
	materialID uint32

	meshProvider bind_group_provider.BindGroupProvider
	constantsBGP bind_group_provider.BindGroupProvider

	modelMatrix [16]float32
	prevModel   [16]float32
	constants   pass.InstanceConstants
}

type scene struct {
	mu *sync.RWMutex

	name string

	cam camera.Camera
	r   renderer.Renderer

	registry map[uint64]game_object.GameObject
	order    []uint64
	nextID   uint64

	lights   []light.Light
	envLight light.EnvironmentLight

	instances     []*meshInstance
	meshProviders map[string]bind_group_provider.BindGroupProvider

	// geometryBGP holds the traversal buffers: binding 0 BVH nodes,
	// binding 1 triangles, binding 2 emissive triangles.
	geometryBGP     bind_group_provider.BindGroupProvider
	bvhCapacity     int
	triCapacity     int
	emissiveCap     int
	geometryVersion uint64

	path *CameraPath

	// writePool is reused each frame to coalesce instance constant uploads.
	writePool []bind_group_provider.BufferWrite

	// computePool manages a bounded set of reusable goroutines for the
	// parallel transform phase of Animate. Workers persist across frames,
	// avoiding per-frame goroutine spawn/teardown overhead.
	computePool    worker.DynamicWorkerPool
	computeWorkers int
}

var _ Scene = &scene{}

// NewScene creates a new Scene with the given camera and renderer. Both are
// required and NewScene panics if either is nil.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - r: the renderer to attach (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}

	s := &scene{
		mu:             &sync.RWMutex{},
		name:           name,
		cam:            cam,
		r:              r,
		registry:       make(map[uint64]game_object.GameObject),
		nextID:         1,
		envLight:       light.NewEnvironmentLight(),
		meshProviders:  make(map[string]bind_group_provider.BindGroupProvider),
		computeWorkers: max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	// Initialize the compute pool after options so WithComputeWorkers can
	// override the default. Queue size of 256 accommodates typical instance
	// counts with headroom.
	s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, 256, 1*time.Second)

	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Renderer() renderer.Renderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	if obj.Model() == nil {
		panic("scene: Add requires a GameObject with a Model")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if obj.ID() == 0 {
		obj.SetID(s.nextID)
		s.nextID++
	}
	if _, exists := s.registry[obj.ID()]; !exists {
		s.order = append(s.order, obj.ID())
	}
	s.registry[obj.ID()] = obj
	return obj.ID()
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registry, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) AddLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
}

func (s *scene) RemoveLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.lights {
		if existing == l {
			s.lights = append(s.lights[:i], s.lights[i+1:]...)
			return
		}
	}
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]light.Light, len(s.lights))
	copy(out, s.lights)
	return out
}

func (s *scene) EnvironmentLight() light.EnvironmentLight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.envLight
}

func (s *scene) Stats() light.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var emissiveCounts []uint32
	for _, inst := range s.instances {
		if !inst.obj.Enabled() || !inst.mat.Emissive() {
			continue
		}
		emissiveCounts = append(emissiveCounts, uint32(len(inst.mesh.Indices)/3))
	}
	return light.CountStats(s.lights, emissiveCounts)
}

func (s *scene) GeometryVersion() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.geometryVersion
}

// InitGPU (re)creates mesh buffers, instance constant buffers, and the
// traversal geometry buffers for the current object set.
func (s *scene) InitGPU() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseLocked()

	var materialID uint32
	for _, id := range s.order {
		obj := s.registry[id]
		mdl := obj.Model()
		meshes := mdl.Meshes()
		for mi := range meshes {
			mesh := &meshes[mi]
			key := fmt.Sprintf("%s/%d", mdl.Name(), mi)
			provider, ok := s.meshProviders[key]
			if !ok {
				provider = bind_group_provider.NewBindGroupProvider(key)
				vertexData := model.MarshalVertexBuffer(mesh.Vertices)
				indexData := model.MarshalIndexBuffer(mesh.Indices)
				if err := s.r.InitMeshBuffers(provider, vertexData, indexData, len(mesh.Indices)); err != nil {
					return fmt.Errorf("scene %q mesh %s: %w", s.name, key, err)
				}
				s.meshProviders[key] = provider
			}

			constantsBGP := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s/instance_%d", key, obj.ID()))
			if err := s.r.InitBindGroup(constantsBGP, pass.InstanceLayout(), nil, nil); err != nil {
				return fmt.Errorf("scene %q instance %s: %w", s.name, key, err)
			}

			inst := &meshInstance{
				obj:          obj,
				mesh:         mesh,
				mat:          mdl.Material(mesh.MaterialIndex),
				materialID:   materialID,
				meshProvider: provider,
				constantsBGP: constantsBGP,
			}
			computeModelMatrix(inst)
			inst.prevModel = inst.modelMatrix
			s.instances = append(s.instances, inst)
			materialID++
		}
	}

	if err := s.refreshAccelLocked(); err != nil {
		return err
	}
	return nil
}

func (s *scene) Draws() []pass.MeshDraw {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draws := make([]pass.MeshDraw, 0, len(s.instances))
	for _, inst := range s.instances {
		if !inst.obj.Enabled() || inst.mat.Transmissive() {
			continue
		}
		draws = append(draws, pass.MeshDraw{
			Mesh:     inst.meshProvider,
			Instance: inst.constantsBGP.BindGroup(),
		})
	}
	return draws
}

func (s *scene) HasGlass() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inst := range s.instances {
		if inst.obj.Enabled() && inst.mat.Transmissive() {
			return true
		}
	}
	return false
}

func (s *scene) GlassIor() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inst := range s.instances {
		if inst.obj.Enabled() && inst.mat.Transmissive() {
			return inst.mat.Ior()
		}
	}
	return 1.5
}

// Animate advances animation state in two phases: a serial object pass that
// integrates rotations and syncs attached lights, then a parallel instance
// pass that recomputes model matrices and packs instance constants. The
// coalesced buffer writes upload in one batch at the end.
func (s *scene) Animate(deltaTime float32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	animated := false
	for _, id := range s.order {
		obj := s.registry[id]
		if !obj.Enabled() {
			continue
		}
		if obj.Animated() {
			obj.Advance(deltaTime)
			animated = true
		}
		if l := obj.Light(); l != nil {
			x, y, z := obj.Position()
			l.SetPosition(x, y, z)
		}
	}

	// Parallel phase: transform and constant packing per instance. A
	// WaitGroup provides per-frame barrier sync since pool.Wait() blocks
	// until workers idle-exit, which is unsuitable for frame-rate workloads.
	var wg sync.WaitGroup
	for i, inst := range s.instances {
		if !inst.obj.Enabled() {
			continue
		}
		wg.Add(1)
		instCap := inst
		s.computePool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				instCap.prevModel = instCap.modelMatrix
				computeModelMatrix(instCap)
				surface := material.ToGPUSurfaceParams(instCap.mat)
				emissive := uint32(0)
				if instCap.mat.Emissive() {
					emissive = 1
				}
				instCap.constants = pass.InstanceConstants{
					Model:      instCap.modelMatrix,
					PrevModel:  instCap.prevModel,
					BaseColor:  surface.BaseColor,
					Specular:   surface.Specular,
					MaterialID: instCap.materialID,
					Emissive:   emissive,
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	s.writePool = s.writePool[:0]
	for _, inst := range s.instances {
		if !inst.obj.Enabled() {
			continue
		}
		s.writePool = append(s.writePool, bind_group_provider.BufferWrite{
			Provider: inst.constantsBGP,
			Binding:  0,
			Offset:   0,
			Data:     common.StructToBytes(&inst.constants),
		})
	}
	if len(s.writePool) > 0 {
		s.r.WriteBuffers(s.writePool)
	}

	return animated
}

func (s *scene) RefreshAccel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshAccelLocked()
}

// refreshAccelLocked regathers world-space triangles from the enabled
// instances, rebuilds the BVH, and uploads all three traversal buffers,
// recreating them when the gathered counts outgrow the allocations.
func (s *scene) refreshAccelLocked() error {
	var triangles []Triangle
	var emissive []GPUEmissiveTriangle
	for _, inst := range s.instances {
		if !inst.obj.Enabled() || inst.mat.Transmissive() {
			continue
		}
		radiance := inst.mat.EmissiveRadiance()
		isEmissive := inst.mat.Emissive()
		mesh := inst.mesh
		for i := 0; i+2 < len(mesh.Indices); i += 3 {
			tri := Triangle{
				V0: transformPoint(inst.modelMatrix, mesh.Vertices[mesh.Indices[i]].Position),
				V1: transformPoint(inst.modelMatrix, mesh.Vertices[mesh.Indices[i+1]].Position),
				V2: transformPoint(inst.modelMatrix, mesh.Vertices[mesh.Indices[i+2]].Position),
			}
			triangles = append(triangles, tri)
			if isEmissive {
				emissive = append(emissive, GPUEmissiveTriangle{
					V0:       [4]float32{tri.V0[0], tri.V0[1], tri.V0[2], 0},
					V1:       [4]float32{tri.V1[0], tri.V1[1], tri.V1[2], 0},
					V2:       [4]float32{tri.V2[0], tri.V2[1], tri.V2[2], 0},
					Radiance: [4]float32{radiance[0], radiance[1], radiance[2], 0},
				})
			}
		}
	}

	nodes := BuildBvh(triangles)
	packed := make([]GPUTriangle, len(triangles))
	for i, tri := range triangles {
		packed[i] = GPUTriangle{
			V0: [4]float32{tri.V0[0], tri.V0[1], tri.V0[2], 0},
			V1: [4]float32{tri.V1[0], tri.V1[1], tri.V1[2], 0},
			V2: [4]float32{tri.V2[0], tri.V2[1], tri.V2[2], 0},
		}
	}

	if err := s.ensureGeometryBuffers(len(nodes), len(packed), len(emissive)); err != nil {
		return err
	}

	writes := []bind_group_provider.BufferWrite{
		{Provider: s.geometryBGP, Binding: 0, Offset: 0, Data: common.SliceToBytes(nodes)},
	}
	if len(packed) > 0 {
		writes = append(writes, bind_group_provider.BufferWrite{
			Provider: s.geometryBGP, Binding: 1, Offset: 0, Data: common.SliceToBytes(packed),
		})
	}
	if len(emissive) > 0 {
		writes = append(writes, bind_group_provider.BufferWrite{
			Provider: s.geometryBGP, Binding: 2, Offset: 0, Data: common.SliceToBytes(emissive),
		})
	}
	s.r.WriteBuffers(writes)
	return nil
}

// ensureGeometryBuffers recreates the traversal buffers when the gathered
// geometry outgrows them, bumping the geometry version so dependent bind
// groups rebuild.
func (s *scene) ensureGeometryBuffers(nodeCount, triCount, emissiveCount int) error {
	if s.geometryBGP != nil && nodeCount <= s.bvhCapacity && triCount <= s.triCapacity && emissiveCount <= s.emissiveCap {
		return nil
	}

	if s.geometryBGP != nil {
		s.geometryBGP.Release()
		s.geometryBGP = nil
	}

	// Allocate with headroom so animation-driven refits do not recreate
	// buffers every frame. Empty buffers keep one element so bind groups
	// stay valid.
	s.bvhCapacity = max(nodeCount*2, 64)
	s.triCapacity = max(triCount*2, 64)
	s.emissiveCap = max(emissiveCount*2, 64)

	usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
	bvhBuf, err := s.r.CreateBuffer(fmt.Sprintf("%s_bvh", s.name), uint64(s.bvhCapacity*GPUBvhNodeSize), usage)
	if err != nil {
		return fmt.Errorf("scene %q bvh buffer: %w", s.name, err)
	}
	triBuf, err := s.r.CreateBuffer(fmt.Sprintf("%s_triangles", s.name), uint64(s.triCapacity*GPUTriangleSize), usage)
	if err != nil {
		return fmt.Errorf("scene %q triangle buffer: %w", s.name, err)
	}
	emissiveBuf, err := s.r.CreateBuffer(fmt.Sprintf("%s_emissive", s.name), uint64(s.emissiveCap*GPUEmissiveTriangleSize), usage)
	if err != nil {
		return fmt.Errorf("scene %q emissive buffer: %w", s.name, err)
	}

	s.geometryBGP = bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s_geometry", s.name))
	s.geometryBGP.SetBuffer(0, bvhBuf)
	s.geometryBGP.SetBuffer(1, triBuf)
	s.geometryBGP.SetBuffer(2, emissiveBuf)
	s.geometryVersion++
	return nil
}

func (s *scene) BvhBuffer() *wgpu.Buffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.geometryBGP == nil {
		return nil
	}
	return s.geometryBGP.Buffer(0)
}

func (s *scene) TriangleBuffer() *wgpu.Buffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.geometryBGP == nil {
		return nil
	}
	return s.geometryBGP.Buffer(1)
}

func (s *scene) EmissiveTriangleBuffer() *wgpu.Buffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.geometryBGP == nil {
		return nil
	}
	return s.geometryBGP.Buffer(2)
}

func (s *scene) CameraPath() *CameraPath {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

func (s *scene) SetCameraPath(path *CameraPath) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
}

func (s *scene) ApplyCameraPath(frame uint32) bool {
	s.mu.RLock()
	path := s.path
	cam := s.cam
	s.mu.RUnlock()

	if path == nil {
		return false
	}
	pos, target, ok := path.Sample(frame)
	if !ok {
		return false
	}
	if ctrl := cam.Controller(); ctrl != nil {
		ctrl.SetTarget(target)
		ctrl.SetPosition(pos)
	}
	return true
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
}

func (s *scene) releaseLocked() {
	for _, inst := range s.instances {
		if inst.constantsBGP != nil {
			inst.constantsBGP.Release()
		}
	}
	s.instances = nil
	for _, provider := range s.meshProviders {
		provider.Release()
	}
	s.meshProviders = make(map[string]bind_group_provider.BindGroupProvider)
	if s.geometryBGP != nil {
		s.geometryBGP.Release()
		s.geometryBGP = nil
	}
	s.bvhCapacity = 0
	s.triCapacity = 0
	s.emissiveCap = 0
}

// computeModelMatrix rebuilds an instance's model matrix from its object's
// transform.
func computeModelMatrix(inst *meshInstance) {
	x, y, z := inst.obj.Position()
	rx, ry, rz := inst.obj.Rotation()
	sx, sy, sz := inst.obj.Scale()
	common.BuildModelMatrix(inst.modelMatrix[:], x, y, z, rx, ry, rz, sx, sy, sz)
}

// transformPoint applies a column-major model matrix to a position.
func transformPoint(m [16]float32, p [3]float32) [3]float32 {
	return [3]float32{
		m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12],
		m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13],
		m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14],
	}
}
